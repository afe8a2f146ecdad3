package secondary

import (
	"context"
	"time"
)

// AnalyticsSink defines the append-only analytics event log.
// Implementations stamp each event with an ID and time.
type AnalyticsSink interface {
	// Record appends one event. Payload must be JSON-serializable.
	Record(ctx context.Context, eventType string, payload map[string]any) error
}

// AnalyticsReader reads back recorded analytics events.
type AnalyticsReader interface {
	// ListEvents returns the most recent events of a type, newest first.
	// Empty eventType lists all types.
	ListEvents(ctx context.Context, eventType string, limit int) ([]*AnalyticsEventRecord, error)
}

// AnalyticsEventRecord represents one analytics event as stored in persistence.
type AnalyticsEventRecord struct {
	ID        string
	EventType string
	Payload   map[string]any
	CreatedAt time.Time
}
