package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recorder/internal/shared"
)

func TestLastRunWasRecentlyClean(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	now := time.Now()
	checker := NewChecker(discardLogger(), CheckerOptions{Now: func() time.Time { return now }})

	// Fresh database: no shutdown marker yet.
	clean, err := checker.LastRunWasRecentlyClean(ctx, r.db)
	require.NoError(t, err)
	assert.False(t, clean)

	// A clean shutdown writes the marker.
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO recorder_runs (start, end_time) VALUES (?, ?)",
		formatTime(now.Add(-time.Hour)), formatTime(now))
	require.NoError(t, err)
	clean, err = checker.LastRunWasRecentlyClean(ctx, r.db)
	require.NoError(t, err)
	assert.True(t, clean)

	// Thirty minutes later the marker is stale.
	now = now.Add(30 * time.Minute)
	clean, err = checker.LastRunWasRecentlyClean(ctx, r.db)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestLastRunWasRecentlyClean_MissingTable(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.db.ExecContext(ctx, "DROP TABLE recorder_runs")
	require.NoError(t, err)

	checker := NewChecker(discardLogger(), CheckerOptions{})
	_, err = checker.LastRunWasRecentlyClean(ctx, r.db)
	assert.Error(t, err)
}

func TestLastRunWasRecentlyClean_UnreadableMarker(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO recorder_runs (start, end_time) VALUES ('x', 'not a timestamp')")
	require.NoError(t, err)

	checker := NewChecker(discardLogger(), CheckerOptions{})
	clean, err := checker.LastRunWasRecentlyClean(ctx, r.db)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestBasicSanityCheck(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	checker := NewChecker(discardLogger(), CheckerOptions{})
	require.NoError(t, checker.BasicSanityCheck(ctx, r.db))

	_, err := r.db.ExecContext(ctx, "DROP TABLE states")
	require.NoError(t, err)

	err = checker.BasicSanityCheck(ctx, r.db)
	require.Error(t, err)
	assert.True(t, shared.IsStructuralIntegrity(err))
}

func TestRunStartupChecks(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	checker := NewChecker(discardLogger(), CheckerOptions{})
	assert.NoError(t, checker.RunStartupChecks(ctx, "fake_db_path", r.db))
}

func TestRunStartupChecks_StubbedCleanCheck(t *testing.T) {
	r, _ := newTestRecorder(t)

	checker := NewChecker(discardLogger(), CheckerOptions{
		LastRunClean: func(context.Context, Querier) (bool, error) { return true, nil },
	})
	assert.NoError(t, checker.RunStartupChecks(context.Background(), "fake_db_path", r.db))
}

func TestRunStartupChecks_CleanCheckErrorPropagatesUnchanged(t *testing.T) {
	r, _ := newTestRecorder(t)

	dbErr := errors.New("database disk image is malformed")
	checker := NewChecker(discardLogger(), CheckerOptions{
		LastRunClean: func(context.Context, Querier) (bool, error) { return false, dbErr },
	})

	err := checker.RunStartupChecks(context.Background(), "fake_db_path", r.db)
	assert.Equal(t, dbErr, err)
}

func TestRunStartupChecks_MissingTable(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.db.ExecContext(ctx, "DROP TABLE events")
	require.NoError(t, err)

	checker := NewChecker(discardLogger(), CheckerOptions{
		LastRunClean: func(context.Context, Querier) (bool, error) { return false, nil },
	})
	err = checker.RunStartupChecks(ctx, "fake_db_path", r.db)
	require.Error(t, err)
	assert.True(t, shared.IsStructuralIntegrity(err))
}

func TestNewChecker_Defaults(t *testing.T) {
	c := NewChecker(nil, CheckerOptions{})

	assert.Equal(t, DefaultStaleness, c.staleness)
	assert.Equal(t, RequiredTables, c.tables)
	assert.NotNil(t, c.now)
	assert.NotNil(t, c.lastRunClean)
}
