package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countEvents(t *testing.T, r *Recorder) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM events").Scan(&n))
	return n
}

func TestWithSession_UncommittedWorkRollsBack(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	err := r.WithSession(ctx, func(ctx context.Context, s *Session) error {
		_, err := s.tx.ExecContext(ctx,
			"INSERT INTO events (event_type, time_fired, created) VALUES ('e', 't', 'c')")
		require.NoError(t, err)
		// Return without committing.
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), countEvents(t, r))
}

func TestWithSession_ErrorFromFnPropagates(t *testing.T) {
	r, _ := newTestRecorder(t)

	boom := errors.New("boom")
	err := r.WithSession(context.Background(), func(context.Context, *Session) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestWithSession_ReleasesOnPanic(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		_ = r.WithSession(ctx, func(ctx context.Context, s *Session) error {
			_, err := s.tx.ExecContext(ctx,
				"INSERT INTO events (event_type, time_fired, created) VALUES ('e', 't', 'c')")
			require.NoError(t, err)
			panic("work exploded")
		})
	}()

	// The panicking scope rolled back and released the connection; the
	// recorder remains usable.
	assert.Equal(t, int64(0), countEvents(t, r))
	assert.True(t, r.RecordEvent(ctx, "after_panic", "{}"))
}

func TestSession_CommitWithoutTransaction(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	err := r.WithSession(ctx, func(ctx context.Context, s *Session) error {
		require.NoError(t, s.commit())
		// A second commit has no transaction to act on.
		return s.commit()
	})

	assert.Error(t, err)
}
