package postgres

// SchemaSQL mirrors the SQLite schema in internal/db with Postgres types.
// Statements are separated by semicolons and must not contain any inside literals.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS states (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	capital TEXT,
	region TEXT,
	week_number INTEGER NOT NULL UNIQUE CHECK (week_number > 0),
	status TEXT NOT NULL DEFAULT 'upcoming' CHECK (status IN ('upcoming', 'current', 'completed')),
	start_date TIMESTAMPTZ,
	completion_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK ((status = 'completed') = (completion_date IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_states_status ON states (status, week_number);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	state_code TEXT REFERENCES states (code),
	platform TEXT NOT NULL,
	content TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'posted', 'archived')),
	created_at TIMESTAMPTZ NOT NULL,
	archived_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts (status, created_at);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	state_code TEXT NOT NULL REFERENCES states (code),
	day_number INTEGER NOT NULL CHECK (day_number BETWEEN 1 AND 7),
	beer_name TEXT NOT NULL,
	brewery TEXT NOT NULL,
	style TEXT,
	rating DOUBLE PRECISION,
	status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published')),
	published_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (state_code, day_number)
);

CREATE TABLE IF NOT EXISTS subscribers (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'unsubscribed')),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analytics_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analytics_events_type ON analytics_events (event_type, created_at);

CREATE TABLE IF NOT EXISTS transition_runs (
	id TEXT PRIMARY KEY,
	outcome TEXT NOT NULL CHECK (outcome IN ('advanced', 'no_op', 'journey_complete', 'failed')),
	from_code TEXT,
	to_code TEXT,
	triggered_by TEXT NOT NULL,
	message TEXT,
	invoked_at TIMESTAMPTZ NOT NULL
);
`
