package recorder

import (
	"context"
	"database/sql"
	"errors"

	"recorder/internal/shared"
)

// Querier is the subset of database operations shared by *sql.DB and
// *sql.Tx. Work functions receive it so they cannot commit or roll back
// the transaction they run in.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Session is a unit-of-work scope bound to the recorder's connection.
// It owns at most one transaction at a time; between retry attempts the
// executor rolls the current transaction back and begins a fresh one.
type Session struct {
	db *sql.DB
	tx *sql.Tx
}

func newSession(ctx context.Context, db *sql.DB) (*Session, error) {
	s := &Session{db: db}
	if err := s.ensureTx(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureTx begins a transaction if none is active.
func (s *Session) ensureTx(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return shared.Mark(err, shared.ErrTransientStorage)
	}
	s.tx = tx
	return nil
}

// commit commits the active transaction and leaves the session without one.
func (s *Session) commit() error {
	if s.tx == nil {
		return errors.New("session has no active transaction")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return shared.Mark(err, shared.ErrTransientStorage)
	}
	return nil
}

// rollback discards the active transaction, if any.
func (s *Session) rollback() {
	if s.tx == nil {
		return
	}
	_ = s.tx.Rollback()
	s.tx = nil
}

// release ends the scope. Any transaction still open at this point was not
// committed and is rolled back.
func (s *Session) release() {
	s.rollback()
}

// WithSession runs fn inside a session scope. Release is guaranteed on
// every exit path, including a panic inside fn: work left uncommitted
// when fn returns is rolled back. Leaked open sessions would exhaust the
// connection pool on a long-running process.
func (r *Recorder) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	s, err := newSession(ctx, r.db)
	if err != nil {
		return err
	}
	defer s.release()
	return fn(ctx, s)
}
