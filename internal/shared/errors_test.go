package shared

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMark_PreservesOriginalError(t *testing.T) {
	marked := Mark(sql.ErrNoRows, ErrNotFound)

	assert.True(t, errors.Is(marked, ErrNotFound))
	assert.True(t, errors.Is(marked, sql.ErrNoRows))
}

func TestMark_Idempotent(t *testing.T) {
	marked := Mark(sql.ErrNoRows, ErrNotFound)
	again := Mark(marked, ErrNotFound)

	assert.Equal(t, marked, again)
}

func TestMark_NilError(t *testing.T) {
	assert.Equal(t, ErrStructuralIntegrity, Mark(nil, ErrStructuralIntegrity))
}

func TestMark_NilSentinel(t *testing.T) {
	err := errors.New("plain")
	assert.Equal(t, err, Mark(err, nil))
}

func TestWrap(t *testing.T) {
	base := errors.New("base")

	assert.Nil(t, Wrap(nil, "context"))
	assert.Equal(t, base, Wrap(base, ""))

	wrapped := Wrap(base, "opening database")
	assert.EqualError(t, wrapped, "opening database: base")
	assert.True(t, errors.Is(wrapped, base))
}

func TestWrapf(t *testing.T) {
	base := errors.New("base")
	wrapped := Wrapf(base, "sanity check failed for table %s", "events")

	assert.EqualError(t, wrapped, "sanity check failed for table events: base")
	assert.True(t, errors.Is(wrapped, base))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"not found direct", ErrNotFound, IsNotFound, true},
		{"not found wrapped", fmt.Errorf("read: %w", ErrNotFound), IsNotFound, true},
		{"not found mismatch", ErrTransientStorage, IsNotFound, false},
		{"transient marked", Mark(errors.New("disk io"), ErrTransientStorage), IsTransientStorage, true},
		{"structural marked", Mark(errors.New("no such table"), ErrStructuralIntegrity), IsStructuralIntegrity, true},
		{"recovery marked", Mark(errors.New("rename failed"), ErrRecoveryFailed), IsRecoveryFailed, true},
		{"nil error", nil, IsTransientStorage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate(tt.err))
		})
	}
}
