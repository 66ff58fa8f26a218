package database

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteBusyTimeout is how long, in milliseconds, a writer waits for a lock
const sqliteBusyTimeout = 5000

// SQLiteDialect is the default single-file store
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

// DSN sets foreign keys and the busy timeout as connection parameters so every
// pooled connection gets them. File databases also use WAL.
func (d *SQLiteDialect) DSN(cfg DialectConfig) string {
	params := "_foreign_keys=on&_busy_timeout=" + strconv.Itoa(sqliteBusyTimeout)
	if inMemory(cfg) {
		return "file::memory:?cache=shared&" + params
	}
	sep := "?"
	if strings.Contains(cfg.Path, "?") {
		sep = "&"
	}
	return cfg.Path + sep + params + "&_journal_mode=WAL"
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB, cfg DialectConfig) error {
	if !inMemory(cfg) {
		applyPool(db, cfg.pool(10, 5))
		return nil
	}
	// The in-memory database is dropped with its last connection, so keep one open forever.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT UNIQUE NOT NULL,
	executed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
}

func inMemory(cfg DialectConfig) bool {
	return cfg.Path == "" || cfg.Path == ":memory:"
}
