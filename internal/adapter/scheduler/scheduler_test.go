package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob_RunsOnSchedule(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Stop()

	var runs atomic.Int32
	_, err := s.AddJob("@every 10ms", "counter", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Stop()

	_, err := s.AddJob("not a schedule", "broken", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestAddJob_SkipsOverlappingRuns(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Stop()

	var active, maxActive atomic.Int32
	_, err := s.AddJob("@every 10ms", "slow", func(ctx context.Context) error {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		time.Sleep(50 * time.Millisecond)
		active.Add(-1)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestStop_CancelsJobContext(t *testing.T) {
	s := New(context.Background(), nil)

	canceled := make(chan struct{})
	_, err := s.AddJob("@every 10ms", "watcher", func(ctx context.Context) error {
		<-ctx.Done()
		close(canceled)
		return ctx.Err()
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("job context was not canceled on stop")
	}
}

func TestStop_Idempotent(t *testing.T) {
	s := New(context.Background(), nil)
	s.Start()
	s.Stop()
	s.Stop()
}
