// Package recorder implements the resilience layer between the application
// and its database: startup health checking with automatic recovery of a
// corrupt database file, unit-of-work sessions with guaranteed release,
// and bounded retry around every read and write.
//
// A process obtains its single Recorder through Open, which refuses to
// return until the database is structurally sound:
//
//	rec, err := recorder.Open(ctx, recorder.Config{
//		URL:            "sqlite://data/recorder.db",
//		MigrationsPath: "file://migrations/sqlite",
//		Logger:         log,
//	})
//
// Open runs the startup checks once; if they fail against a corrupt SQLite
// file, the file is quarantined, a fresh database is created, and the
// checks run once more. A second failure is fatal — endless recovery would
// mask a failing storage medium.
//
// Writes degrade gracefully: they report a boolean and never propagate an
// error. Reads surface the underlying error after retries are exhausted,
// and an empty result is shared.ErrNotFound, never retried. Callers must
// handle the two disciplines differently.
package recorder
