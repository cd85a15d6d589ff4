package recorder

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"recorder/internal/shared"
)

// RecordEvent persists a domain event. It reports whether the write
// committed; a false return means the write was retried to exhaustion and
// dropped, which the caller may alert on but cannot recover.
func (r *Recorder) RecordEvent(ctx context.Context, eventType, data string) bool {
	committed := false
	_ = r.WithSession(ctx, func(ctx context.Context, s *Session) error {
		committed = r.exec.ExecuteWrite(ctx, s, func(q Querier) error {
			now := formatTime(r.now())
			_, err := q.ExecContext(ctx,
				r.rebind("INSERT INTO events (event_type, event_data, time_fired, created) VALUES (?, ?, ?, ?)"),
				eventType, data, now, now)
			return err
		})
		return nil
	})
	return committed
}

// RecordState persists an entity state snapshot.
func (r *Recorder) RecordState(ctx context.Context, entityID, state, attributes string) bool {
	committed := false
	_ = r.WithSession(ctx, func(ctx context.Context, s *Session) error {
		committed = r.exec.ExecuteWrite(ctx, s, func(q Querier) error {
			now := formatTime(r.now())
			_, err := q.ExecContext(ctx,
				r.rebind("INSERT INTO states (entity_id, state, attributes, last_updated, created) VALUES (?, ?, ?, ?, ?)"),
				entityID, state, attributes, now, now)
			return err
		})
		return nil
	})
	return committed
}

// EventCount returns the number of recorded events.
func (r *Recorder) EventCount(ctx context.Context) (int64, error) {
	return ExecuteRead(r.exec, ctx, r.db, func(ctx context.Context, q Querier) ReadResult[int64] {
		var n int64
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
			return TransientFailure[int64](shared.Mark(err, shared.ErrTransientStorage))
		}
		return Found(n)
	})
}

// StateCount returns the number of recorded states.
func (r *Recorder) StateCount(ctx context.Context) (int64, error) {
	return ExecuteRead(r.exec, ctx, r.db, func(ctx context.Context, q Querier) ReadResult[int64] {
		var n int64
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM states").Scan(&n); err != nil {
			return TransientFailure[int64](shared.Mark(err, shared.ErrTransientStorage))
		}
		return Found(n)
	})
}

// LastEventTime returns when the most recent event was fired. An empty
// events table yields shared.ErrNotFound.
func (r *Recorder) LastEventTime(ctx context.Context) (time.Time, error) {
	return ExecuteRead(r.exec, ctx, r.db, func(ctx context.Context, q Querier) ReadResult[time.Time] {
		var raw string
		err := q.QueryRowContext(ctx, "SELECT time_fired FROM events ORDER BY event_id DESC LIMIT 1").Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound[time.Time]()
		}
		if err != nil {
			return TransientFailure[time.Time](shared.Mark(err, shared.ErrTransientStorage))
		}
		ts, err := parseTime(raw)
		if err != nil {
			return TransientFailure[time.Time](err)
		}
		return Found(ts)
	})
}

// Stats summarizes the recorded data for the status surface.
type Stats struct {
	Events    int64      `json:"events"`
	States    int64      `json:"states"`
	LastEvent *time.Time `json:"last_event,omitempty"`
}

// Stats collects event and state counts plus the last event time.
func (r *Recorder) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.Events, err = r.EventCount(ctx); err != nil {
		return Stats{}, err
	}
	if st.States, err = r.StateCount(ctx); err != nil {
		return Stats{}, err
	}

	last, err := r.LastEventTime(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return st, nil
		}
		return Stats{}, err
	}
	st.LastEvent = &last
	return st, nil
}
