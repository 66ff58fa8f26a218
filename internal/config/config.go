package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Session    SessionConfig    `mapstructure:"session"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Email      EmailConfig      `mapstructure:"email"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// DraftRateLimit is the number of drafts one client may create per minute; 0 disables the limit
	DraftRateLimit int      `mapstructure:"draft_rate_limit"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the store dialect. Path is used by sqlite, URL by postgres and mysql.
type DatabaseConfig struct {
	Type string `mapstructure:"type"`
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
	// Pool limits; zero keeps the dialect defaults
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalysisConfig points at the structured analysis service
type AnalysisConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ClassifierConfig configures emotion classification of camera frames
type ClassifierConfig struct {
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// UploadConfig configures blob intake
type UploadConfig struct {
	Dir     string        `mapstructure:"dir"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig tunes the session controller
type SessionConfig struct {
	FrameInterval  time.Duration `mapstructure:"frame_interval"`
	SecondsPerWord int           `mapstructure:"seconds_per_word"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxAudioBytes  int           `mapstructure:"max_audio_bytes"`
}

// CatalogConfig points at the seed exercise catalog. An empty Path uses the built-in catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// EmailConfig configures session report e-mail. An empty FromEmail disables it.
type EmailConfig struct {
	AWSRegion string `mapstructure:"aws_region"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
	Debug     bool   `mapstructure:"debug"`
}

// Load reads configuration from an optional config file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.draft_rate_limit", 30)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "./speechcoach.db")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("analysis.endpoint", "")
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.model", "gpt-4o-mini")
	v.SetDefault("analysis.timeout", 30*time.Second)

	v.SetDefault("classifier.model", "gpt-4o-mini")
	v.SetDefault("classifier.timeout", 10*time.Second)

	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.base_url", "/uploads")
	v.SetDefault("upload.timeout", 15*time.Second)

	v.SetDefault("session.frame_interval", 3*time.Second)
	v.SetDefault("session.seconds_per_word", 5)
	v.SetDefault("session.idle_timeout", 2*time.Hour)
	v.SetDefault("session.max_audio_bytes", 20<<20)

	v.SetDefault("catalog.path", "")

	v.SetDefault("email.aws_region", "us-east-1")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "Speech Coach")
	v.SetDefault("email.debug", false)
}

// AnalysisEnabled reports whether an analysis endpoint is configured
func (c *Config) AnalysisEnabled() bool {
	return c.Analysis.Endpoint != ""
}
