package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect hides what differs between the supported SQL stores
type Dialect interface {
	// Name is the store type as written in configuration
	Name() string

	DriverName() string
	DSN(cfg DialectConfig) string

	// RewriteQuery turns the ? placeholders repositories write into the driver's syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId is false for stores that need INSERT ... RETURNING id
	SupportsLastInsertId() bool

	// ConfigureConnection sizes the pool and applies store settings
	ConfigureConnection(db *sql.DB, cfg DialectConfig) error

	MigrationsSubdir() string
	CreateMigrationsTableQuery() string
}

// DialectConfig describes one connection. Path is used by sqlite, URL by
// postgres and mysql. Zero pool values fall back to the dialect's defaults.
type DialectConfig struct {
	Path string
	URL  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// pool returns cfg with unset pool limits replaced by the given defaults
func (cfg DialectConfig) pool(maxOpen, maxIdle int) DialectConfig {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = maxOpen
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = maxIdle
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	return cfg
}

func applyPool(db *sql.DB, cfg DialectConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(time.Minute)
}

// numberPlaceholders rewrites ? as $1, $2, ... Question marks inside quoted
// literals or identifiers are left alone.
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
