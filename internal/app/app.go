// Package app wires configuration, storage, services and the HTTP API into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"speechcoach/internal/analysis"
	"speechcoach/internal/blob"
	"speechcoach/internal/config"
	"speechcoach/internal/database"
	"speechcoach/internal/emotion"
	"speechcoach/internal/handlers"
	"speechcoach/internal/llm"
	"speechcoach/internal/notify"
	"speechcoach/internal/repository"
	"speechcoach/internal/security"
	"speechcoach/internal/service"
	"speechcoach/internal/session"
)

// pruneInterval is how often idle drafts are swept
const pruneInterval = 5 * time.Minute

// NewLogger builds the process logger from the log settings
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// OpenDatabase connects to the configured store and applies migrations
func OpenDatabase(cfg config.DatabaseConfig, logger logrus.FieldLogger) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.WithField("type", db.GetDialect().Name()).Info("Database ready")
	return db, nil
}

// App is a fully wired server
type App struct {
	cfg    *config.Config
	logger logrus.FieldLogger

	DB        *database.DB
	Profiles  *service.ProfileService
	Exercises *service.ExerciseService
	History   *service.HistoryService
	Drafts    *session.Manager
	Mailer    *notify.ReportMailer
	Blobs     *blob.Store

	limiter *security.RateLimiter
	server  *http.Server
}

// New opens the store, seeds the exercise catalog and builds the API
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*App, error) {
	db, err := OpenDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	a, err := build(ctx, cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, db *database.DB, logger logrus.FieldLogger) (*App, error) {
	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		DB:        db,
		Profiles:  service.NewProfileService(profileRepo, logger),
		Exercises: service.NewExerciseService(repository.NewExerciseRepository(db), logger),
		History:   service.NewHistoryService(sessionRepo, profileRepo),
	}

	if err := a.SeedCatalog(ctx); err != nil {
		return nil, err
	}

	blobs, err := blob.NewStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		return nil, err
	}
	a.Blobs = blobs

	mailer, err := notify.NewReportMailer(ctx, notify.Config{
		AWSRegion: cfg.Email.AWSRegion,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		Debug:     cfg.Email.Debug,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.Mailer = mailer

	// Without an analysis endpoint every session is scored by the fallback and
	// no emotion sampling runs.
	var (
		analyzer   analysis.Analyzer
		uploader   analysis.Uploader
		classifier emotion.Classifier
	)
	if cfg.AnalysisEnabled() {
		client := llm.NewClient(llm.Config{
			Endpoint:        cfg.Analysis.Endpoint,
			APIKey:          cfg.Analysis.APIKey,
			Model:           cfg.Analysis.Model,
			ClassifierModel: cfg.Classifier.Model,
			Timeout:         cfg.Analysis.Timeout,
		}, logger.WithField("component", "llm"))
		analyzer, uploader, classifier = client, blobs, client
		logger.WithField("model", cfg.Analysis.Model).Info("Session analysis enabled")
	} else {
		logger.Info("Session analysis disabled: analysis.endpoint not configured")
	}

	synthesizer := analysis.NewSynthesizer(analyzer, uploader, sessionRepo, analysis.Config{
		AnalysisTimeout: cfg.Analysis.Timeout,
		UploadTimeout:   cfg.Upload.Timeout,
		SecondsPerWord:  cfg.Session.SecondsPerWord,
	}, logger.WithField("component", "analysis"))

	sampler := emotion.DefaultSamplerConfig()
	if cfg.Session.FrameInterval > 0 {
		sampler.Interval = cfg.Session.FrameInterval
	}
	if cfg.Classifier.Timeout > 0 {
		sampler.Timeout = cfg.Classifier.Timeout
	}

	a.Drafts = session.NewManager(session.ManagerConfig{
		Profiles:      a.Profiles,
		Exercises:     a.Exercises,
		Classifier:    classifier,
		Synthesizer:   synthesizer,
		Sampler:       sampler,
		MaxAudioBytes: cfg.Session.MaxAudioBytes,
		Logger:        logger.WithField("component", "session"),
		OnSaved:       mailer.Notifier(a.Profiles),
	})

	if cfg.Server.DraftRateLimit > 0 {
		a.limiter = security.NewRateLimiter(cfg.Server.DraftRateLimit, time.Minute)
	}

	api := handlers.NewServer(handlers.Dependencies{
		Profiles:       a.Profiles,
		Exercises:      a.Exercises,
		History:        a.History,
		Drafts:         a.Drafts,
		Uploads:        blobs.Handler(),
		Ping:           db.PingContext,
		DraftLimiter:   a.limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.WithField("component", "http"),
	})

	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

// SeedCatalog stores the configured catalog when no exercise exists yet
func (a *App) SeedCatalog(ctx context.Context) error {
	catalog, err := service.LoadCatalogFile(a.cfg.Catalog.Path)
	if err != nil {
		return err
	}
	if _, err := a.Exercises.SeedIfEmpty(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler of the API
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", a.server.Addr).Info("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ticker.C:
			if n := a.Drafts.PruneIdle(a.cfg.Session.IdleTimeout); n > 0 {
				a.logger.WithField("count", n).Info("Pruned idle drafts")
			}
		case <-ctx.Done():
			a.logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			a.Drafts.Close()
			return a.server.Shutdown(shutdownCtx)
		}
	}
}

// Close releases the drafts and the database connection
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	a.Drafts.Close()
	return a.DB.Close()
}
