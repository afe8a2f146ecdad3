package primary

import (
	"context"
	"time"
)

// ContentService defines the primary port for editorial content:
// reviews, social posts, and digest subscribers.
type ContentService interface {
	// AddReview schedules a draft review for a state's day.
	AddReview(ctx context.Context, req AddReviewRequest) (*Review, error)

	// ListReviews lists a state's reviews ordered by day.
	ListReviews(ctx context.Context, stateCode string) ([]*Review, error)

	// AddPost records a social post.
	AddPost(ctx context.Context, req AddPostRequest) (*Post, error)

	// ListPosts lists posts, newest first.
	ListPosts(ctx context.Context, filters PostFilters) ([]*Post, error)

	// Subscribe adds an active digest subscriber.
	Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error)

	// Unsubscribe stops digests for an email address.
	Unsubscribe(ctx context.Context, email string) error

	// ListSubscribers lists every subscriber.
	ListSubscribers(ctx context.Context) ([]*Subscriber, error)

	// ListEvents lists recent analytics events, newest first.
	// Empty eventType lists all types.
	ListEvents(ctx context.Context, eventType string, limit int) ([]*AnalyticsEvent, error)
}

// AddReviewRequest contains parameters for scheduling a review.
type AddReviewRequest struct {
	StateCode string
	DayNumber int
	BeerName  string
	Brewery   string
	Style     string
	Rating    float64
}

// Review represents a beer review at the port boundary.
type Review struct {
	ID          string  `json:"id"`
	StateCode   string  `json:"stateCode"`
	DayNumber   int     `json:"dayNumber"`
	BeerName    string  `json:"beerName"`
	Brewery     string  `json:"brewery"`
	Style       string  `json:"style,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Status      string  `json:"status"`
	PublishedAt string  `json:"publishedAt,omitempty"`
}

// AddPostRequest contains parameters for recording a post.
type AddPostRequest struct {
	StateCode string
	Platform  string
	Content   string
	Status    string // Defaults to scheduled
	CreatedAt time.Time
}

// PostFilters contains filter options for listing posts.
type PostFilters struct {
	StateCode string
	Status    string
	Limit     int
}

// Post represents a social post at the port boundary.
type Post struct {
	ID         string
	StateCode  string
	Platform   string
	Content    string
	Status     string
	CreatedAt  string
	ArchivedAt string
}

// SubscribeRequest contains parameters for adding a subscriber.
type SubscribeRequest struct {
	Email string
	Name  string
}

// Subscriber represents a digest subscriber at the port boundary.
type Subscriber struct {
	ID        string
	Email     string
	Name      string
	Status    string
	CreatedAt string
}

// AnalyticsEvent represents a recorded analytics event at the port boundary.
type AnalyticsEvent struct {
	ID        string
	EventType string
	Payload   map[string]any
	CreatedAt string
}
