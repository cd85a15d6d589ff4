package sqlite

import (
	"context"
	"database/sql"
	"os"
	"testing"
)

// TestDB wraps a SQLite database with helpers for tests.
type TestDB struct {
	DB   *sql.DB
	Path string // Database file path (":memory:" for in-memory)
}

// NewTestDBInMemory creates an in-memory SQLite database for a test.
// The database is closed automatically when the test finishes.
func NewTestDBInMemory(t *testing.T) *TestDB {
	t.Helper()

	db, err := NewInMemoryDB(context.Background())
	if err != nil {
		t.Fatalf("Failed to create in-memory test DB: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return &TestDB{DB: db, Path: ":memory:"}
}

// NewTestDBFile creates a temp-file SQLite database for a test.
// The file is removed automatically when the test finishes.
func NewTestDBFile(t *testing.T) *TestDB {
	t.Helper()

	db, path, err := NewTestDB(context.Background())
	if err != nil {
		t.Fatalf("Failed to create file test DB: %v", err)
	}

	t.Cleanup(func() {
		_ = CleanupTestDB(db, path)
	})

	return &TestDB{DB: db, Path: path}
}

// ApplyTestMigrations applies migrations to the test database.
func (tdb *TestDB) ApplyTestMigrations(t *testing.T, migrationsPath string) {
	t.Helper()

	if err := ApplyMigrations(tdb.Path, migrationsPath); err != nil {
		t.Fatalf("Failed to apply test migrations: %v", err)
	}
}

// Exec executes a SQL statement, failing the test on error.
func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) sql.Result {
	t.Helper()

	result, err := tdb.DB.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("Failed to execute query: %v", err)
	}
	return result
}

// QueryRow runs a query expected to return a single row.
func (tdb *TestDB) QueryRow(t *testing.T, query string, args ...any) *sql.Row {
	t.Helper()
	return tdb.DB.QueryRowContext(context.Background(), query, args...)
}

// TableExists reports whether the named table exists.
func (tdb *TestDB) TableExists(t *testing.T, tableName string) bool {
	t.Helper()

	var count int
	row := tdb.QueryRow(t, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to check table existence: %v", err)
	}
	return count > 0
}

// CorruptDatabaseFile overwrites the file at path with bytes that are not a
// SQLite database, simulating on-disk corruption.
func CorruptDatabaseFile(t *testing.T, path string) {
	t.Helper()

	if err := os.WriteFile(path, []byte("this is not a sqlite database"), 0644); err != nil {
		t.Fatalf("Failed to corrupt database file: %v", err)
	}
}
