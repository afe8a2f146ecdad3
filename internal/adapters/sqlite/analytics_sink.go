package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/brewquest/internal/ports/secondary"
)

const defaultEventLimit = 50

// AnalyticsSink implements secondary.AnalyticsSink and secondary.AnalyticsReader
// on the analytics_events table.
type AnalyticsSink struct {
	db  *sql.DB
	now func() time.Time
}

// NewAnalyticsSink creates a new AnalyticsSink.
func NewAnalyticsSink(db *sql.DB) *AnalyticsSink {
	return &AnalyticsSink{db: db, now: time.Now}
}

// Record appends one event. The payload is stored as JSON.
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
		"INSERT INTO analytics_events (id, event_type, payload, created_at) VALUES (?, ?, ?, ?)",
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
		limit = defaultEventLimit
	}

	query := "SELECT id, event_type, payload, created_at FROM analytics_events"
	args := []any{}
	if eventType != "" {
		query += " WHERE event_type = ?"
		args = append(args, eventType)
	}
	// ULIDs sort by creation time within the same millisecond.
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// Ensure AnalyticsSink implements the interfaces
var (
	_ secondary.AnalyticsSink   = (*AnalyticsSink)(nil)
	_ secondary.AnalyticsReader = (*AnalyticsSink)(nil)
)
