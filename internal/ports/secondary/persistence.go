// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// StateRepository defines the secondary port for journey state persistence.
// Every mutation must be visible to the next read issued by the same process.
type StateRepository interface {
	// GetCurrent returns the unique current state.
	// Returns journey.ErrNoCurrentState when zero or several states are current.
	GetCurrent(ctx context.Context) (*StateRecord, error)

	// GetNextUpcoming returns the upcoming state with the smallest week number.
	// Returns journey.ErrJourneyComplete when no upcoming state remains.
	GetNextUpcoming(ctx context.Context) (*StateRecord, error)

	// GetByCode retrieves a state by its code.
	GetByCode(ctx context.Context, code string) (*StateRecord, error)

	// MarkCompleted moves a current state to completed.
	MarkCompleted(ctx context.Context, code string, completedAt time.Time) error

	// MarkCurrent moves an upcoming state to current.
	MarkCurrent(ctx context.Context, code string, startedAt time.Time) error

	// RestoreCurrent moves a completed state back to current, keeping startDate.
	// Used only to compensate a half-applied transition.
	RestoreCurrent(ctx context.Context, code string, startedAt time.Time) error

	// ListByStatus lists states ordered by week number. Empty status lists all.
	ListByStatus(ctx context.Context, status string) ([]*StateRecord, error)

	// CountByStatus returns the number of states per status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// Create persists a new state. Status must be pre-populated by the service layer.
	Create(ctx context.Context, state *StateRecord) error
}

// TransactionalStateRepository is a StateRepository that can apply both
// writes of a transition in one database transaction.
type TransactionalStateRepository interface {
	StateRepository

	// Advance completes fromCode and, when toCode is not empty, makes toCode
	// current. Either both writes commit or neither does.
	Advance(ctx context.Context, fromCode, toCode string, at time.Time) error
}

// StateRecord represents a journey state as stored in persistence.
type StateRecord struct {
	Code           string
	Name           string
	Capital        string    // Empty string means null
	Region         string    // Empty string means null
	WeekNumber     int
	Status         string    // upcoming, current, completed
	StartDate      time.Time // Zero means null
	CompletionDate time.Time // Zero means null
}

// PostRepository defines the secondary port for social/content post persistence.
type PostRepository interface {
	// Create persists a new post. ID must be pre-populated by the service layer.
	Create(ctx context.Context, post *PostRecord) error

	// List retrieves posts matching the given filters, newest first.
	List(ctx context.Context, filters PostFilters) ([]*PostRecord, error)

	// ArchiveOlderThan archives every non-archived post created before cutoff
	// and returns how many were archived.
	ArchiveOlderThan(ctx context.Context, cutoff, archivedAt time.Time) (int, error)
}

// PostRecord represents a social/content post as stored in persistence.
type PostRecord struct {
	ID         string
	StateCode  string
	Platform   string
	Content    string
	Status     string    // scheduled, posted, archived
	CreatedAt  time.Time
	ArchivedAt time.Time // Zero means null
}

// PostFilters contains filter options for querying posts.
type PostFilters struct {
	StateCode string
	Status    string
	Limit     int
}

// ReviewRepository defines the secondary port for daily beer review persistence.
type ReviewRepository interface {
	// Create persists a new review. ID must be pre-populated by the service layer.
	Create(ctx context.Context, review *ReviewRecord) error

	// GetForDay retrieves the review scheduled for a state's day.
	GetForDay(ctx context.Context, stateCode string, day int) (*ReviewRecord, error)

	// ListByState lists reviews for a state ordered by day.
	ListByState(ctx context.Context, stateCode string) ([]*ReviewRecord, error)

	// MarkPublished publishes a draft review.
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// ReviewRecord represents a beer review as stored in persistence.
type ReviewRecord struct {
	ID          string
	StateCode   string
	DayNumber   int
	BeerName    string
	Brewery     string
	Style       string    // Empty string means null
	Rating      float64   // Zero means unrated
	Status      string    // draft, published
	PublishedAt time.Time // Zero means null
}

// SubscriberRepository defines the secondary port for digest subscriber persistence.
type SubscriberRepository interface {
	// Create persists a new subscriber.
	Create(ctx context.Context, sub *SubscriberRecord) error

	// ListActive lists active subscribers ordered by email.
	ListActive(ctx context.Context) ([]*SubscriberRecord, error)

	// List lists all subscribers ordered by email.
	List(ctx context.Context) ([]*SubscriberRecord, error)

	// Unsubscribe marks a subscriber unsubscribed by email.
	Unsubscribe(ctx context.Context, email string) error
}

// SubscriberRecord represents a digest subscriber as stored in persistence.
type SubscriberRecord struct {
	ID        string
	Email     string
	Name      string // Empty string means null
	Status    string // active, unsubscribed
	CreatedAt time.Time
}

// TransitionRunRepository defines the secondary port for the weekly run history.
type TransitionRunRepository interface {
	// Create records one weekly invocation.
	Create(ctx context.Context, run *TransitionRunRecord) error

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*TransitionRunRecord, error)
}

// TransitionRunRecord represents one weekly invocation as stored in persistence.
type TransitionRunRecord struct {
	ID        string
	Outcome   string // advanced, no_op, journey_complete, failed
	FromCode  string // Empty string means null
	ToCode    string // Empty string means null
	Trigger   string
	Message   string // Empty string means null
	InvokedAt time.Time
}
