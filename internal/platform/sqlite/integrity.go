package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
)

// ValidateDatabaseFile reports whether the file at path can be opened as a
// SQLite database and passes PRAGMA quick_check. A file that does not yet
// exist is created empty and considered valid. A nil logger falls back to
// slog.Default.
func ValidateDatabaseFile(ctx context.Context, log *slog.Logger, path string) bool {
	if log == nil {
		log = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Debug("could not create database directory", "dir", dir, "error", err)
			return false
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return false
	}
	defer func() { _ = db.Close() }()

	return quickCheckOK(ctx, log, db)
}

// quickCheckOK runs the lightweight structural consistency check against an
// open database. Anything other than a single "ok" means damage.
func quickCheckOK(ctx context.Context, log *slog.Logger, db *sql.DB) bool {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		log.Debug("quick_check could not run", "error", err)
		return false
	}
	return result == "ok"
}
