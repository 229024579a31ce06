// Package db provides database persistence for trackr.
//
// One database holds projects, their tasks and their kanban boards. SQLite is
// the default; PostgreSQL is selected with the postgres driver.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/randalmurphal/trackr/internal/db/driver"
)

//go:embed schema
var schemaFS embed.FS

// timeLayout is the stored form of created_at/updated_at.
const timeLayout = time.RFC3339Nano

// DB wraps a database connection with driver abstraction.
type DB struct {
	driver driver.Driver
	path   string
	now    func() time.Time
}

// Open opens and migrates the database. For SQLite dsn is a file path and
// its parent directory is created; for PostgreSQL it is a connection string.
func Open(ctx context.Context, dialect driver.Dialect, dsn string) (*DB, error) {
	if dialect == driver.DialectSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	drv, err := driver.New(dialect)
	if err != nil {
		return nil, err
	}
	if err := drv.Open(ctx, dsn); err != nil {
		return nil, err
	}

	d := &DB{driver: drv, path: dsn, now: time.Now}
	if err := drv.Migrate(ctx, schemaFS, "schema"); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("migrate %s db: %w", dialect, err)
	}
	return d, nil
}

// OpenInMemory opens a migrated in-memory SQLite database.
// Each call creates a new isolated database.
func OpenInMemory() (*DB, error) {
	return Open(context.Background(), driver.DialectSQLite, ":memory:")
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.driver.Close()
}

// Path returns the database DSN/path.
func (d *DB) Path() string {
	return d.path
}

// Dialect returns the database dialect.
func (d *DB) Dialect() driver.Dialect {
	return d.driver.Dialect()
}

// SQL returns the underlying sql.DB.
func (d *DB) SQL() *sql.DB {
	return d.driver.DB()
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.driver.DB().PingContext(ctx)
}

// RunInTx executes fn within a transaction.
// If fn returns an error, the transaction is rolled back.
func (d *DB) RunInTx(ctx context.Context, fn func(q driver.Querier) error) error {
	tx, err := d.driver.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (d *DB) timestamp() string {
	return d.now().UTC().Format(timeLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
