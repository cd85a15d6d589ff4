package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// URLPrefix marks a database URL as a local SQLite file.
const URLPrefix = "sqlite://"

// IsFileURL reports whether the database URL refers to a local SQLite file.
// Non-file URLs (a server database) skip file-level validation entirely.
func IsFileURL(dburl string) bool {
	return strings.HasPrefix(dburl, URLPrefix)
}

// PathFromURL extracts the filesystem path from a sqlite:// URL.
// "sqlite:///abs/path.db" yields "/abs/path.db" and
// "sqlite://rel/path.db" yields "rel/path.db".
func PathFromURL(dburl string) string {
	return strings.TrimPrefix(dburl, URLPrefix)
}

// DBOptions contains settings for the SQLite database.
type DBOptions struct {
	// ConnMaxLifetime is the maximum lifetime of a pooled connection.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum idle time of a pooled connection.
	ConnMaxIdleTime time.Duration
	// MaxOpenConns caps the connection pool. SQLite has a single writer,
	// so the cap stays low.
	MaxOpenConns int
	// MaxIdleConns is the number of idle connections kept around.
	MaxIdleConns int
	// PingTimeout bounds the connectivity probe on open.
	PingTimeout time.Duration
	// WALMode enables write-ahead logging.
	WALMode bool
	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool
	// BusyTimeout is how long a connection waits on SQLITE_BUSY.
	BusyTimeout time.Duration
}

// DefaultDBOptions returns settings tuned for embedded single-process use.
func DefaultDBOptions() DBOptions {
	return DBOptions{
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		PingTimeout:     5 * time.Second,
		WALMode:         true,
		ForeignKeys:     true,
		BusyTimeout:     5 * time.Second,
	}
}

// NewDB opens the SQLite database at dbPath with default options,
// creating the parent directory and the file if they do not exist.
func NewDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	return NewDBWithOptions(ctx, dbPath, DefaultDBOptions())
}

// NewDBWithOptions opens the SQLite database at dbPath with the given options.
func NewDBWithOptions(ctx context.Context, dbPath string, opts DBOptions) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := applyPragmaSettings(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply PRAGMA settings: %w", err)
	}

	return db, nil
}

// buildDSN builds the DSN string. Only the busy timeout travels via DSN;
// the remaining settings are applied as PRAGMA statements after open.
func buildDSN(dbPath string, opts DBOptions) string {
	if opts.BusyTimeout > 0 {
		return fmt.Sprintf("%s?_busy_timeout=%d", dbPath, opts.BusyTimeout.Milliseconds())
	}
	return dbPath
}

// applyPragmaSettings applies PRAGMA settings to an open database.
// Running a PRAGMA also forces the driver to actually read the file,
// so a corrupt file fails here rather than on first application query.
func applyPragmaSettings(ctx context.Context, db *sql.DB, opts DBOptions) error {
	pragmas := make([]string, 0, 4)

	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}
	if opts.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	pragmas = append(pragmas, "PRAGMA synchronous = NORMAL")
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()))
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// NewInMemoryDB creates an in-memory SQLite database for tests.
// The pool is limited to one connection so all callers see one schema.
func NewInMemoryDB(ctx context.Context) (*sql.DB, error) {
	opts := DefaultDBOptions()
	opts.WALMode = false // WAL is not supported for in-memory databases
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1

	return NewDBWithOptions(ctx, ":memory:", opts)
}

// NewTestDB creates a temp-file SQLite database and returns it with its path.
func NewTestDB(ctx context.Context) (*sql.DB, string, error) {
	tmpFile, err := os.CreateTemp("", "test_db_*.sqlite")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := NewDB(ctx, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, "", err
	}

	return db, tmpPath, nil
}

// CleanupTestDB closes a test database and removes its file.
func CleanupTestDB(db *sql.DB, dbPath string) error {
	if db != nil {
		_ = db.Close()
	}
	if dbPath != "" && dbPath != ":memory:" {
		return os.Remove(dbPath)
	}
	return nil
}
