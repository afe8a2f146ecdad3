package db

import (
	"database/sql"
	"fmt"
)

const statesTableSQL = `
-- States (one row per week of the journey)
CREATE TABLE IF NOT EXISTS states (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	capital TEXT,
	region TEXT,
	week_number INTEGER NOT NULL UNIQUE CHECK(week_number > 0),
	status TEXT NOT NULL CHECK(status IN ('upcoming', 'current', 'completed')) DEFAULT 'upcoming',
	start_date DATETIME,
	completion_date DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	CHECK ((status = 'completed') = (completion_date IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_states_status ON states(status, week_number);
`

const contentTablesSQL = `
-- Posts (social/content posts, archived after the retention window)
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	state_code TEXT,
	platform TEXT NOT NULL,
	content TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('scheduled', 'posted', 'archived')) DEFAULT 'scheduled',
	created_at DATETIME NOT NULL,
	archived_at DATETIME,
	FOREIGN KEY (state_code) REFERENCES states(code)
);

CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts(status, created_at);

-- Reviews (one beer review per state per day)
CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	state_code TEXT NOT NULL,
	day_number INTEGER NOT NULL CHECK(day_number BETWEEN 1 AND 7),
	beer_name TEXT NOT NULL,
	brewery TEXT NOT NULL,
	style TEXT,
	rating REAL,
	status TEXT NOT NULL CHECK(status IN ('draft', 'published')) DEFAULT 'draft',
	published_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (state_code) REFERENCES states(code),
	UNIQUE(state_code, day_number)
);
`

const subscribersTableSQL = `
-- Subscribers (digest recipients)
CREATE TABLE IF NOT EXISTS subscribers (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	status TEXT NOT NULL CHECK(status IN ('active', 'unsubscribed')) DEFAULT 'active',
	created_at DATETIME NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const analyticsTableSQL = `
-- Analytics events (append-only)
CREATE TABLE IF NOT EXISTS analytics_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analytics_events_type ON analytics_events(event_type, created_at);
`

const transitionRunsTableSQL = `
-- Transition runs (one row per weekly invocation)
CREATE TABLE IF NOT EXISTS transition_runs (
	id TEXT PRIMARY KEY,
	outcome TEXT NOT NULL CHECK(outcome IN ('advanced', 'no_op', 'journey_complete', 'failed')),
	from_code TEXT,
	to_code TEXT,
	triggered_by TEXT NOT NULL,
	message TEXT,
	invoked_at DATETIME NOT NULL
);
`

// SchemaSQL is the complete modern schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// through GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so a
// repository that references a missing column fails immediately.
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update the table SQL here
//  3. Run the adapter tests to verify alignment
const SchemaSQL = statesTableSQL + contentTablesSQL + subscribersTableSQL + analyticsTableSQL + transitionRunsTableSQL

// InitSchema creates the database schema or migrates an existing one.
func InitSchema(database *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		// schema_version table exists - run any pending migrations
		return RunMigrations(database)
	}

	// Unversioned database that already has journey tables - migrate it
	var oldTableCount int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'states'").Scan(&oldTableCount)
	if err != nil {
		return err
	}
	if oldTableCount > 0 {
		return RunMigrations(database)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied.
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(schemaVersionTableSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	for _, m := range migrations {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	return tx.Commit()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
