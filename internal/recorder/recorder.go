package recorder

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"recorder/internal/platform/pg"
	"recorder/internal/platform/sqlite"
	"recorder/internal/shared"
	"recorder/pkg/retry"
)

// timeFormat is how timestamps are persisted.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// Config configures Open.
type Config struct {
	// URL identifies the database. sqlite:// URLs point at a local file
	// and get file-level validation and recovery; any other scheme is a
	// server database and skips both.
	URL string
	// MigrationsPath is the golang-migrate source applied to sqlite
	// databases before the startup checks, e.g. "file://migrations/sqlite".
	// Empty skips migration.
	MigrationsPath string
	// Logger for the recorder and its collaborators. Defaults to
	// slog.Default.
	Logger *slog.Logger
	// Checker runs the startup checks. Defaults to NewChecker with the
	// standard tables and staleness.
	Checker *Checker
	// Wait and Sleep configure the retry executor.
	Wait  time.Duration
	Sleep retry.SleepFunc
	// Now supplies the clock. Defaults to time.Now.
	Now func() time.Time
}

// Recorder owns the process's single database connection. It is created by
// Open after the startup health sequence reaches Ready and is the only
// handle through which read and write operations are dispatched, so no
// traffic can precede the checks.
type Recorder struct {
	db      *sql.DB
	url     string
	fileURL bool
	log     *slog.Logger
	exec    *Executor
	checker *Checker
	now     func() time.Time
	start   time.Time
}

// Open runs the startup health sequence and returns a ready Recorder.
//
// The sequence: open the connection, apply migrations (sqlite only), run
// the startup checks. If any step fails against a sqlite file, the file
// is validated and — when corrupt — quarantined and recreated, and the
// sequence runs once more against the fresh file. If the file was not
// corrupt, or the second pass fails too, the error is fatal and carries
// shared.ErrRecoveryFailed; a corruption recurring right after recovery
// points at a failing storage medium, which endless retries would mask.
func Open(ctx context.Context, cfg Config) (*Recorder, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	checker := cfg.Checker
	if checker == nil {
		checker = NewChecker(log, CheckerOptions{Now: cfg.Now})
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	db, err := openAndCheck(ctx, cfg, checker)
	if err != nil {
		if !sqlite.IsFileURL(cfg.URL) {
			return nil, shared.Wrap(err, "startup checks failed")
		}

		log.Warn("database failed startup checks, attempting recovery", "error", err)
		if !sqlite.ValidateOrQuarantineDatabase(ctx, log, cfg.URL) {
			// The file itself is fine; the checks failed for a reason
			// recovery cannot fix.
			return nil, shared.Mark(shared.Wrap(err, "startup checks failed on a database that is not corrupt"), shared.ErrRecoveryFailed)
		}

		db, err = openAndCheck(ctx, cfg, checker)
		if err != nil {
			return nil, shared.Mark(shared.Wrap(err, "startup checks failed after recovery"), shared.ErrRecoveryFailed)
		}
	}

	r := &Recorder{
		db:      db,
		url:     cfg.URL,
		fileURL: sqlite.IsFileURL(cfg.URL),
		log:     log,
		exec:    NewExecutor(log, ExecutorOptions{Wait: cfg.Wait, Sleep: cfg.Sleep}),
		checker: checker,
		now:     now,
		start:   now(),
	}
	log.Info("database ready", "url", cfg.URL)
	return r, nil
}

// openAndCheck performs one pass of the startup sequence.
func openAndCheck(ctx context.Context, cfg Config, checker *Checker) (*sql.DB, error) {
	db, err := openConnection(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	if sqlite.IsFileURL(cfg.URL) && cfg.MigrationsPath != "" {
		if err := sqlite.ApplyMigrations(sqlite.PathFromURL(cfg.URL), cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := checker.RunStartupChecks(ctx, cfg.URL, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func openConnection(ctx context.Context, dburl string) (*sql.DB, error) {
	if sqlite.IsFileURL(dburl) {
		return sqlite.NewDB(ctx, sqlite.PathFromURL(dburl))
	}
	return pg.NewDB(ctx, dburl)
}

// Close writes the clean-shutdown marker and closes the connection. The
// marker goes through the retry executor like any other write; if it
// cannot be committed the next startup simply treats the shutdown as
// unclean, which is the safe interpretation.
func (r *Recorder) Close(ctx context.Context) error {
	committed := false
	err := r.WithSession(ctx, func(ctx context.Context, s *Session) error {
		committed = r.exec.ExecuteWrite(ctx, s, func(q Querier) error {
			_, err := q.ExecContext(ctx,
				r.rebind("INSERT INTO recorder_runs (start, end_time) VALUES (?, ?)"),
				formatTime(r.start), formatTime(r.now()))
			return err
		})
		return nil
	})
	if err != nil || !committed {
		r.log.Warn("could not record clean shutdown", "error", err)
	}
	return r.db.Close()
}

// Ping verifies the connection is alive.
func (r *Recorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// URL returns the database URL the recorder was opened with.
func (r *Recorder) URL() string {
	return r.url
}

// rebind rewrites ? placeholders to $N for the postgres backend. SQLite
// queries pass through untouched.
func (r *Recorder) rebind(query string) string {
	if r.fileURL {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
