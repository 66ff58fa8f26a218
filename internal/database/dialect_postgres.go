package database

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresDialect talks to PostgreSQL through lib/pq
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) DSN(cfg DialectConfig) string {
	return cfg.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return numberPlaceholders(query)
}

// SupportsLastInsertId is false: inserts append RETURNING id instead
func (d *PostgresDialect) SupportsLastInsertId() bool {
	return false
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB, cfg DialectConfig) error {
	applyPool(db, cfg.pool(25, 5))
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT UNIQUE NOT NULL,
	executed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
}
