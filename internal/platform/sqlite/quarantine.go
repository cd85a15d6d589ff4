package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// corruptSuffix is appended to a quarantined database file's name.
const corruptSuffix = ".corrupt"

// ValidateOrQuarantineDatabase ensures that a fresh, non-corrupt database
// file exists at the URL's location. It reports whether a quarantine
// occurred:
//
//   - false: the file was already valid, or did not exist and was just
//     created empty, or the URL is not a local file. Nothing needed fixing.
//   - true: the file was corrupt; it has been renamed aside (preserved for
//     inspection, never deleted) and a fresh empty database now exists at
//     the original path.
//
// The operation is idempotent: a second call against the freshly recreated
// file returns false.
func ValidateOrQuarantineDatabase(ctx context.Context, log *slog.Logger, dburl string) bool {
	if !IsFileURL(dburl) {
		// Server database; validation is the server's responsibility.
		return false
	}
	dbpath := PathFromURL(dburl)

	if ValidateDatabaseFile(ctx, log, dbpath) {
		return false
	}

	log.Error("the database file is corrupt or malformed, moving it aside", "path", dbpath)

	if err := moveAwayBrokenDatabase(dbpath); err != nil {
		log.Error("could not quarantine the corrupt database file", "path", dbpath, "error", err)
		return false
	}

	// Recreate an empty database at the original location.
	if !ValidateDatabaseFile(ctx, log, dbpath) {
		log.Error("could not create a fresh database after quarantine", "path", dbpath)
		return false
	}

	return true
}

// moveAwayBrokenDatabase renames the corrupt file next to the original,
// tagging it with a timestamp so repeated quarantines never collide. The
// WAL and shared-memory sidecars travel with it: a stale -wal left beside
// the recreated file would not match it, and the sidecars are part of the
// evidence worth preserving.
func moveAwayBrokenDatabase(dbpath string) error {
	tag := fmt.Sprintf("%s.%s", corruptSuffix, time.Now().UTC().Format("2006-01-02T15_04_05"))
	if err := os.Rename(dbpath, dbpath+tag); err != nil {
		return fmt.Errorf("failed to move corrupt database aside: %w", err)
	}
	for _, ext := range []string{"-wal", "-shm"} {
		sidecar := dbpath + ext
		if _, err := os.Stat(sidecar); err != nil {
			continue
		}
		if err := os.Rename(sidecar, sidecar+tag); err != nil {
			return fmt.Errorf("failed to move %s aside: %w", sidecar, err)
		}
	}
	return nil
}
