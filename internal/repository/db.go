package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
)

// Supported database/sql driver names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key collision.
const mysqlDuplicateEntry = 1062

// NewDB creates a database connection pool for the given driver and DSN.
func NewDB(driver, dsn string) (*sql.DB, error) {
	if _, err := schemaFor(driver); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		slog.Warn("database ping failed, continuing without DB", "driver", driver, "error", err)
	}

	return db, nil
}

// Migrate creates the tables and indexes for driver if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, err := schemaFor(driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func schemaFor(driver string) ([]string, error) {
	switch driver {
	case DriverMySQL:
		return mysqlSchema, nil
	case DriverSQLite:
		return sqliteSchema, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// isDuplicateEntryError reports whether err is a unique constraint violation
// from either supported driver.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// dbTime normalizes timestamps before they are written or compared, since
// MySQL DATETIME(6) keeps microseconds only.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
