package recorder

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recorder/internal/platform/sqlite"
)

const testSchema = `
CREATE TABLE events (
	event_id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	event_data TEXT,
	time_fired TEXT NOT NULL,
	created TEXT NOT NULL
);
CREATE TABLE states (
	state_id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_id TEXT NOT NULL,
	state TEXT NOT NULL,
	attributes TEXT,
	last_updated TEXT NOT NULL,
	created TEXT NOT NULL
);
CREATE TABLE recorder_runs (
	run_id INTEGER PRIMARY KEY AUTOINCREMENT,
	start TEXT NOT NULL,
	end_time TEXT
);`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRecorder builds a recorder over an in-memory database with the
// full schema, a counting sleep, and a discarding logger.
func newTestRecorder(t *testing.T) (*Recorder, *int) {
	t.Helper()

	tdb := sqlite.NewTestDBInMemory(t)
	tdb.Exec(t, testSchema)

	sleeps := new(int)
	log := discardLogger()
	r := &Recorder{
		db:      tdb.DB,
		url:     sqlite.URLPrefix + ":memory:",
		fileURL: true,
		log:     log,
		exec:    NewExecutor(log, ExecutorOptions{Sleep: func(time.Duration) { *sleeps++ }}),
		checker: NewChecker(log, CheckerOptions{}),
		now:     time.Now,
		start:   time.Now(),
	}
	return r, sleeps
}

// writeSchemaMigrations writes the schema as a migration set and returns
// its golang-migrate source URL, for tests that exercise Open end to end.
func writeSchemaMigrations(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	down := `DROP TABLE recorder_runs; DROP TABLE states; DROP TABLE events;`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_create_recorder_schema.up.sql"), []byte(testSchema), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_create_recorder_schema.down.sql"), []byte(down), 0644))

	return "file://" + filepath.ToSlash(dir)
}
