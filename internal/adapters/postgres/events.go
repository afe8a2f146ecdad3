package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/brewquest/internal/ports/secondary"
)

// AnalyticsSink implements secondary.AnalyticsSink and secondary.AnalyticsReader
// on the analytics_events table. Payloads are stored as JSONB.
type AnalyticsSink struct {
	db  *sql.DB
	now func() time.Time
}

// NewAnalyticsSink creates a new Postgres analytics sink.
func NewAnalyticsSink(db *sql.DB) *AnalyticsSink {
	return &AnalyticsSink{db: db, now: time.Now}
}

// Record appends one event.
func (s *AnalyticsSink) Record(ctx context.Context, eventType string, payload map[string]any) error {
	if eventType == "" {
		return fmt.Errorf("analytics event type is required")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO analytics_events (id, event_type, payload, created_at) VALUES ($1, $2, $3::jsonb, $4)",
		ulid.Make().String(), eventType, string(body), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}

// ListEvents returns the most recent events of a type, newest first.
func (s *AnalyticsSink) ListEvents(ctx context.Context, eventType string, limit int) ([]*secondary.AnalyticsEventRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if eventType == "" {
		rows, err = s.db.QueryContext(ctx,
			"SELECT id, event_type, payload::text, created_at FROM analytics_events ORDER BY created_at DESC, id DESC LIMIT $1",
			limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			"SELECT id, event_type, payload::text, created_at FROM analytics_events WHERE event_type = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
			eventType, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.AnalyticsEventRecord
	for rows.Next() {
		var body string
		event := &secondary.AnalyticsEventRecord{}
		if err := rows.Scan(&event.ID, &event.EventType, &body, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analytics event: %w", err)
		}
		if err := json.Unmarshal([]byte(body), &event.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode analytics event %s: %w", event.ID, err)
		}
		event.CreatedAt = event.CreatedAt.UTC()
		events = append(events, event)
	}
	return events, rows.Err()
}

// TransitionRunRepository implements secondary.TransitionRunRepository with Postgres.
type TransitionRunRepository struct {
	db *sql.DB
}

// NewTransitionRunRepository creates a new Postgres transition run repository.
func NewTransitionRunRepository(db *sql.DB) *TransitionRunRepository {
	return &TransitionRunRepository{db: db}
}

// Create records one weekly invocation.
func (r *TransitionRunRepository) Create(ctx context.Context, run *secondary.TransitionRunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run ID must be pre-populated by service layer")
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transition_runs (id, outcome, from_code, to_code, triggered_by, message, invoked_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		run.ID, run.Outcome, nullString(run.FromCode), nullString(run.ToCode), run.Trigger, nullString(run.Message), run.InvokedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transition run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *TransitionRunRepository) List(ctx context.Context, limit int) ([]*secondary.TransitionRunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, outcome, from_code, to_code, triggered_by, message, invoked_at FROM transition_runs ORDER BY invoked_at DESC, id DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.TransitionRunRecord
	for rows.Next() {
		var fromCode, toCode, message sql.NullString
		run := &secondary.TransitionRunRecord{}
		if err := rows.Scan(&run.ID, &run.Outcome, &fromCode, &toCode, &run.Trigger, &message, &run.InvokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition run: %w", err)
		}
		run.FromCode = fromCode.String
		run.ToCode = toCode.String
		run.Message = message.String
		run.InvokedAt = run.InvokedAt.UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

var (
	_ secondary.AnalyticsSink           = (*AnalyticsSink)(nil)
	_ secondary.AnalyticsReader         = (*AnalyticsSink)(nil)
	_ secondary.TransitionRunRepository = (*TransitionRunRepository)(nil)
)
