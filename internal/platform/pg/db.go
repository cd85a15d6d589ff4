// Package pg opens server-hosted PostgreSQL databases through the pgx
// driver. These databases are identified by postgres:// URLs; file-level
// validation and quarantine do not apply to them — the server owns its
// own storage integrity.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"recorder/pkg/retry"
)

// DBOptions contains settings for the PostgreSQL connection pool.
type DBOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// PingTimeout bounds each connectivity probe.
	PingTimeout time.Duration
	// DialRetry governs how often the initial probe is repeated before
	// giving up; a freshly started database server may not accept
	// connections immediately.
	DialRetry retry.Config
}

// DefaultDBOptions returns pool settings for a single-process writer.
func DefaultDBOptions() DBOptions {
	dial := retry.DefaultConfig()
	dial.MaxAttempts = 5
	dial.Wait = time.Second

	return DBOptions{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     5 * time.Second,
		DialRetry:       dial,
	}
}

// NewDB opens a PostgreSQL database with default options.
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	return NewDBWithOptions(ctx, dsn, DefaultDBOptions())
}

// NewDBWithOptions opens a PostgreSQL database with the given options.
func NewDBWithOptions(ctx context.Context, dsn string, opts DBOptions) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	err = retry.Do(ctx, opts.DialRetry, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	return db, nil
}

// Health verifies that the database answers a trivial query.
func Health(ctx context.Context, db *sql.DB) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}
