package testhelpers

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var memoryDBCounter atomic.Int64

// NewSQLiteDB returns a private in-memory SQLite database seeded with
// SeedStatements. It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewEmptySQLiteDB(t)
	for _, stmt := range SeedStatements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed sqlite database: %v", err)
		}
	}
	return db
}

// NewEmptySQLiteDB returns a private in-memory SQLite database with no tables.
func NewEmptySQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the same data.
	dsn := fmt.Sprintf("file:askdb_test_%d?mode=memory&cache=shared", memoryDBCounter.Add(1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
