// Package testing provides testing utilities shared across the module
// test suites.
package testing

import (
	"database/sql"
	"testing"

	"github.com/afribourse/tradesim/internal/database"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// NewTestDB creates an in-memory sqlite database with the full ledger
// schema applied. The connection pool is capped at one connection: a
// second pooled connection would see a separate empty in-memory
// database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
