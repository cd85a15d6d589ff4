// Package sqlite provides the SQLite platform layer: opening the embedded
// database file with tuned PRAGMA settings, validating its structural
// soundness, quarantining corrupt files, applying schema migrations, and
// test helpers for in-memory and temp-file databases.
//
// # Opening a database
//
//	ctx := context.Background()
//	db, err := sqlite.NewDB(ctx, "data/recorder.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
// # Database URLs
//
// The application identifies its database with a URL. URLs carrying the
// sqlite:// prefix refer to a local file and are subject to file-level
// validation and recovery; any other scheme is a server database and is
// opened elsewhere.
//
//	sqlite.IsFileURL("sqlite://data/recorder.db") // true
//	sqlite.PathFromURL("sqlite:///var/lib/r.db")  // "/var/lib/r.db"
//
// # Validation and recovery
//
// ValidateDatabaseFile runs PRAGMA quick_check against a file;
// ValidateOrQuarantineDatabase moves a corrupt file aside (preserving it
// for inspection) and creates a fresh empty database in its place.
//
// # Migrations
//
//	err := sqlite.ApplyMigrations("data/recorder.db", "file://migrations/sqlite")
package sqlite
