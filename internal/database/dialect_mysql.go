package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect talks to MySQL or MariaDB through go-sql-driver/mysql
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN enables parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(cfg DialectConfig) string {
	if strings.Contains(cfg.URL, "parseTime=") {
		return cfg.URL
	}
	if strings.Contains(cfg.URL, "?") {
		return cfg.URL + "&parseTime=true"
	}
	return cfg.URL + "?parseTime=true"
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB, cfg DialectConfig) error {
	applyPool(db, cfg.pool(25, 5))
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1"); err != nil {
		return fmt.Errorf("enable foreign key checks: %w", err)
	}
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	filename VARCHAR(255) UNIQUE NOT NULL,
	executed_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
)`
}
