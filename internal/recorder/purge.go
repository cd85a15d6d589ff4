package recorder

import (
	"context"
)

// Purge deletes events and states older than keepDays. It reports whether
// the purge committed; like every write it degrades to false after the
// retry attempts are exhausted, and the next scheduled run tries again.
func (r *Recorder) Purge(ctx context.Context, keepDays int) bool {
	cutoff := formatTime(r.now().AddDate(0, 0, -keepDays))

	var events, states int64
	committed := false
	_ = r.WithSession(ctx, func(ctx context.Context, s *Session) error {
		committed = r.exec.ExecuteWrite(ctx, s, func(q Querier) error {
			res, err := q.ExecContext(ctx, r.rebind("DELETE FROM events WHERE time_fired < ?"), cutoff)
			if err != nil {
				return err
			}
			events, _ = res.RowsAffected()

			res, err = q.ExecContext(ctx, r.rebind("DELETE FROM states WHERE last_updated < ?"), cutoff)
			if err != nil {
				return err
			}
			states, _ = res.RowsAffected()
			return nil
		})
		return nil
	})

	if committed {
		r.log.Info("purged old recorder data", "keep_days", keepDays, "events", events, "states", states)
	}
	return committed
}
