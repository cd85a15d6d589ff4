package recorder

import (
	"context"
	"log/slog"
	"time"

	"recorder/internal/shared"
	"recorder/pkg/retry"
)

const (
	// writeAttempts and readRetries preserve the long-observed recorder
	// behavior: a write gives up after three attempts, a read after two
	// retries. The asymmetry is historical and deliberate — unifying the
	// two would silently change recovery behavior.
	writeAttempts = 3
	readRetries   = 2

	// defaultWait is the fixed backoff between attempts.
	defaultWait = 100 * time.Millisecond
)

// ExecutorOptions configures the retry executor.
type ExecutorOptions struct {
	// Wait is the fixed backoff interval. Defaults to 100ms.
	Wait time.Duration
	// Sleep performs the wait; tests substitute a counting implementation.
	Sleep retry.SleepFunc
}

// Executor wraps units of work with bounded retry and fixed backoff.
// The sleep is a blocking operation on the calling goroutine: once a retry
// sequence begins it runs to exhaustion before returning control.
type Executor struct {
	wait  time.Duration
	sleep retry.SleepFunc
	log   *slog.Logger
}

// NewExecutor creates an executor. A nil logger falls back to slog.Default.
func NewExecutor(log *slog.Logger, opts ExecutorOptions) *Executor {
	if log == nil {
		log = slog.Default()
	}
	if opts.Wait <= 0 {
		opts.Wait = defaultWait
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Executor{wait: opts.Wait, sleep: opts.Sleep, log: log}
}

// ExecuteWrite runs work inside the session and commits it, retrying on
// failure. Each failed attempt logs a warning, rolls the session back,
// sleeps once, and retries on a fresh transaction. It reports whether the
// work was committed; exhausted attempts leave the session rolled back and
// yield false rather than an error — the caller decides whether to alert.
func (e *Executor) ExecuteWrite(ctx context.Context, s *Session, work func(q Querier) error) bool {
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		err := s.ensureTx(ctx)
		if err == nil {
			if err = work(s.tx); err == nil {
				if err = s.commit(); err == nil {
					return true
				}
			}
		}
		e.log.Warn("error executing database write", "attempt", attempt, "error", err)
		s.rollback()
		e.sleep(e.wait)
	}
	return false
}

// readState tags the outcome of one read attempt.
type readState int

const (
	readFound readState = iota
	readNotFound
	readTransient
)

// ReadResult is the tagged outcome of a single read attempt. The retry
// policy branches on the tag instead of sniffing error values.
type ReadResult[T any] struct {
	state readState
	value T
	err   error
}

// Found marks a successful read carrying a value.
func Found[T any](value T) ReadResult[T] {
	return ReadResult[T]{state: readFound, value: value}
}

// NotFound marks a legitimately empty result. It is never retried and
// never logged as an error.
func NotFound[T any]() ReadResult[T] {
	return ReadResult[T]{state: readNotFound}
}

// TransientFailure marks an engine failure that may clear on retry.
func TransientFailure[T any](err error) ReadResult[T] {
	return ReadResult[T]{state: readTransient, err: err}
}

// ExecuteRead runs fetch against q with bounded retry. A Found outcome
// returns its value; NotFound returns shared.ErrNotFound immediately with
// zero sleeps, even on the first attempt; a TransientFailure is retried
// after a sleep, at most twice, before the underlying error surfaces.
func ExecuteRead[T any](e *Executor, ctx context.Context, q Querier, fetch func(ctx context.Context, q Querier) ReadResult[T]) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		res := fetch(ctx, q)
		switch res.state {
		case readFound:
			return res.value, nil
		case readNotFound:
			return zero, shared.ErrNotFound
		}

		err := res.err
		if err == nil {
			err = shared.ErrTransientStorage
		}
		if attempt > readRetries {
			return zero, err
		}
		e.log.Warn("error executing database read", "attempt", attempt, "error", err)
		e.sleep(e.wait)
	}
}
