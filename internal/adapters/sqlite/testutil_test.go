// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/brewquest/internal/db"
)

// t0 is the fixed instant the journey tests start from.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
// One connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedState inserts an upcoming state.
func seedState(t *testing.T, db *sql.DB, code, name string, week int) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO states (code, name, week_number) VALUES (?, ?, ?)", code, name, week)
	if err != nil {
		t.Fatalf("failed to seed state: %v", err)
	}
	return code
}

// seedCurrentState inserts a current state started at start.
func seedCurrentState(t *testing.T, db *sql.DB, code, name string, week int, start time.Time) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO states (code, name, week_number, status, start_date) VALUES (?, ?, ?, 'current', ?)",
		code, name, week, start.UTC())
	if err != nil {
		t.Fatalf("failed to seed current state: %v", err)
	}
	return code
}

// seedCompletedState inserts a completed state.
func seedCompletedState(t *testing.T, db *sql.DB, code, name string, week int, start, done time.Time) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO states (code, name, week_number, status, start_date, completion_date) VALUES (?, ?, ?, 'completed', ?, ?)",
		code, name, week, start.UTC(), done.UTC())
	if err != nil {
		t.Fatalf("failed to seed completed state: %v", err)
	}
	return code
}

// seedJourney inserts AL (current since start), AK and AZ (upcoming).
func seedJourney(t *testing.T, db *sql.DB, start time.Time) {
	t.Helper()
	seedCurrentState(t, db, "AL", "Alabama", 1, start)
	seedState(t, db, "AK", "Alaska", 2)
	seedState(t, db, "AZ", "Arizona", 3)
}
