// Package shared contains the error taxonomy used across the application.
//
// Four conditions matter to the storage layer and are represented as
// sentinel errors:
//
//   - ErrNotFound: a read legitimately found no row. Never retried and
//     never logged as an error.
//   - ErrTransientStorage: the engine failed while executing a statement
//     or committing. Recoverable by retry.
//   - ErrStructuralIntegrity: required schema objects are missing or the
//     file failed a consistency check. Not retried; triggers recovery.
//   - ErrRecoveryFailed: recovery was attempted but could not produce a
//     usable database. Always surfaced, never swallowed.
//
// Callers classify with the Is* predicates and adapt engine errors with
// Mark, which preserves the original error in the chain:
//
//	if errors.Is(err, sql.ErrNoRows) {
//	    return shared.Mark(err, shared.ErrNotFound)
//	}
package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransientStorage indicates a storage failure that may clear on retry.
	ErrTransientStorage = errors.New("transient storage failure")

	// ErrStructuralIntegrity indicates missing or damaged database structure.
	ErrStructuralIntegrity = errors.New("structural integrity violation")

	// ErrRecoveryFailed indicates that database recovery did not succeed.
	ErrRecoveryFailed = errors.New("database recovery failed")
)

// Mark wraps err with the given sentinel, preserving the original error.
// Both errors.Is(marked, sentinel) and errors.Is(marked, err) hold.
// Marking is idempotent: an error that already carries the sentinel is
// returned unchanged. A nil err yields the sentinel itself.
func Mark(err error, sentinel error) error {
	if err == nil {
		return sentinel
	}
	if sentinel == nil || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap wraps an error with additional context.
// It returns a new error that formats as "context: err".
// If err is nil, Wrap returns nil.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether the error indicates an empty read result.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransientStorage reports whether the error indicates a retryable
// storage failure.
func IsTransientStorage(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}

// IsStructuralIntegrity reports whether the error indicates missing or
// damaged database structure.
func IsStructuralIntegrity(err error) bool {
	return errors.Is(err, ErrStructuralIntegrity)
}

// IsRecoveryFailed reports whether the error indicates a failed recovery.
func IsRecoveryFailed(err error) bool {
	return errors.Is(err, ErrRecoveryFailed)
}
