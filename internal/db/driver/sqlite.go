package driver

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteDriver implements the Driver interface for SQLite.
type SQLiteDriver struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite driver.
func NewSQLite() *SQLiteDriver {
	return &SQLiteDriver{}
}

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// pragmaDSN appends connPragmas to dsn as _pragma query parameters.
func pragmaDSN(dsn string) string {
	params := make([]string, len(connPragmas))
	for i, p := range connPragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Open opens a SQLite database at the given path.
func (d *SQLiteDriver) Open(ctx context.Context, dsn string) error {
	db, err := sql.Open("sqlite", pragmaDSN(dsn))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	// :memory: databases are per-connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("connect sqlite: %w", err)
	}

	d.db = db
	return nil
}

// Close closes the database connection.
func (d *SQLiteDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *SQLiteDriver) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

func (d *SQLiteDriver) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

func (d *SQLiteDriver) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (d *SQLiteDriver) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqlTx{tx: tx, rebind: identity}, nil
}

// Migrate runs sqlite_NNN.sql migrations from dir.
func (d *SQLiteDriver) Migrate(ctx context.Context, schema fs.FS, dir string) error {
	return migrate(ctx, d.db, schema, dir, "sqlite_", `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT DEFAULT (datetime('now'))
		)`,
		"INSERT INTO _migrations (version) VALUES (?)")
}

// Dialect returns the SQLite dialect identifier.
func (d *SQLiteDriver) Dialect() Dialect {
	return DialectSQLite
}

// DB returns the underlying sql.DB.
func (d *SQLiteDriver) DB() *sql.DB {
	return d.db
}
