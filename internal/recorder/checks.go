package recorder

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"recorder/internal/shared"
)

// DefaultStaleness is how recent a clean-shutdown marker must be to count.
// An end_time older than this means the marker belongs to some earlier
// life of the process and says nothing about the last shutdown.
const DefaultStaleness = 30 * time.Minute

// RequiredTables are the tables the application depends on. A missing one
// is a fatal structural condition, not a recoverable failure.
var RequiredTables = []string{"events", "states", "recorder_runs"}

// CheckerOptions configures the startup checks.
type CheckerOptions struct {
	// Staleness overrides DefaultStaleness.
	Staleness time.Duration
	// Now supplies the clock; tests substitute a fixed one.
	Now func() time.Time
	// Tables overrides RequiredTables.
	Tables []string
	// LastRunClean overrides the clean-shutdown check.
	LastRunClean func(ctx context.Context, q Querier) (bool, error)
}

// Checker inspects an open database for structural soundness and a recent
// clean shutdown. Collaborators are injected through CheckerOptions so the
// orchestrator and tests can substitute them without shared process state.
type Checker struct {
	staleness    time.Duration
	now          func() time.Time
	tables       []string
	lastRunClean func(ctx context.Context, q Querier) (bool, error)
	log          *slog.Logger
}

// NewChecker creates a checker with the given options.
func NewChecker(log *slog.Logger, opts CheckerOptions) *Checker {
	if log == nil {
		log = slog.Default()
	}
	c := &Checker{
		staleness: opts.Staleness,
		now:       opts.Now,
		tables:    opts.Tables,
		log:       log,
	}
	if c.staleness <= 0 {
		c.staleness = DefaultStaleness
	}
	if c.now == nil {
		c.now = time.Now
	}
	if len(c.tables) == 0 {
		c.tables = RequiredTables
	}
	c.lastRunClean = opts.LastRunClean
	if c.lastRunClean == nil {
		c.lastRunClean = c.LastRunWasRecentlyClean
	}
	return c
}

// LastRunWasRecentlyClean reports whether the previous process wrote its
// clean-shutdown marker recently. No marker at all means a crash, a kill,
// or a first run; a stale marker means the same thing. A database error
// from the query is returned unchanged.
func (c *Checker) LastRunWasRecentlyClean(ctx context.Context, q Querier) (bool, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		"SELECT end_time FROM recorder_runs WHERE end_time IS NOT NULL ORDER BY run_id DESC LIMIT 1",
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	end, err := parseTime(raw)
	if err != nil {
		c.log.Debug("unreadable shutdown marker", "end_time", raw, "error", err)
		return false, nil
	}

	return c.now().Sub(end) < c.staleness, nil
}

// BasicSanityCheck issues a minimal query against each required table.
// A table that cannot answer is fatal structural damage: the error carries
// shared.ErrStructuralIntegrity, signaling the caller to proceed into
// recovery rather than retry.
func (c *Checker) BasicSanityCheck(ctx context.Context, q Querier) error {
	for _, table := range c.tables {
		rows, err := q.QueryContext(ctx, "SELECT * FROM "+table+" LIMIT 1")
		if err != nil {
			return shared.Wrapf(shared.Mark(err, shared.ErrStructuralIntegrity),
				"sanity check failed for table %s", table)
		}
		_ = rows.Close()
	}
	return nil
}

// RunStartupChecks runs the startup sequence against an open database:
// the clean-shutdown check first, then the sanity check. An error from
// the clean-shutdown check propagates unchanged; a failed sanity check
// propagates as a structural error. A missing or stale shutdown marker is
// not an error, only worth a log line.
func (c *Checker) RunStartupChecks(ctx context.Context, dbpath string, q Querier) error {
	clean, err := c.lastRunClean(ctx, q)
	if err != nil {
		return err
	}
	if clean {
		c.log.Debug("the system was restarted cleanly", "path", dbpath)
	} else {
		c.log.Warn("the system could not validate that the database was shut down cleanly", "path", dbpath)
	}

	return c.BasicSanityCheck(ctx, q)
}
