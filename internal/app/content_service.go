package app

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/ports/secondary"
)

// ContentServiceImpl implements the ContentService interface.
type ContentServiceImpl struct {
	stateRepo      secondary.StateRepository
	reviewRepo     secondary.ReviewRepository
	postRepo       secondary.PostRepository
	subscriberRepo secondary.SubscriberRepository
	events         secondary.AnalyticsReader
	now            func() time.Time
}

// NewContentService creates a new ContentService with injected dependencies.
func NewContentService(
	stateRepo secondary.StateRepository,
	reviewRepo secondary.ReviewRepository,
	postRepo secondary.PostRepository,
	subscriberRepo secondary.SubscriberRepository,
	events secondary.AnalyticsReader,
) *ContentServiceImpl {
	return &ContentServiceImpl{
		stateRepo:      stateRepo,
		reviewRepo:     reviewRepo,
		postRepo:       postRepo,
		subscriberRepo: subscriberRepo,
		events:         events,
		now:            time.Now,
	}
}

// AddReview schedules a draft review for a state's day.
func (s *ContentServiceImpl) AddReview(ctx context.Context, req primary.AddReviewRequest) (*primary.Review, error) {
	if req.DayNumber < 1 || req.DayNumber > journey.DaysPerState {
		return nil, fmt.Errorf("day must be between 1 and %d, got %d", journey.DaysPerState, req.DayNumber)
	}
	if strings.TrimSpace(req.BeerName) == "" || strings.TrimSpace(req.Brewery) == "" {
		return nil, fmt.Errorf("beer name and brewery are required")
	}
	if req.Rating < 0 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 0 and 5, got %.1f", req.Rating)
	}

	// Validate state exists
	if _, err := s.stateRepo.GetByCode(ctx, req.StateCode); err != nil {
		return nil, err
	}

	record := &secondary.ReviewRecord{
		ID:        "REV-" + ulid.Make().String(),
		StateCode: req.StateCode,
		DayNumber: req.DayNumber,
		BeerName:  strings.TrimSpace(req.BeerName),
		Brewery:   strings.TrimSpace(req.Brewery),
		Style:     strings.TrimSpace(req.Style),
		Rating:    req.Rating,
		Status:    "draft",
	}
	if err := s.reviewRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return recordToReview(record), nil
}

// ListReviews lists a state's reviews ordered by day.
func (s *ContentServiceImpl) ListReviews(ctx context.Context, stateCode string) ([]*primary.Review, error) {
	records, err := s.reviewRepo.ListByState(ctx, stateCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]*primary.Review, len(records))
	for i, r := range records {
		reviews[i] = recordToReview(r)
	}
	return reviews, nil
}

// AddPost records a social post.
func (s *ContentServiceImpl) AddPost(ctx context.Context, req primary.AddPostRequest) (*primary.Post, error) {
	if req.Platform == "" {
		return nil, fmt.Errorf("platform is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}

	status := req.Status
	if status == "" {
		status = "scheduled"
	}
	switch status {
	case "scheduled", "posted", "archived":
	default:
		return nil, fmt.Errorf("unknown post status %q (want scheduled, posted or archived)", status)
	}

	if req.StateCode != "" {
		if _, err := s.stateRepo.GetByCode(ctx, req.StateCode); err != nil {
			return nil, err
		}
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	record := &secondary.PostRecord{
		ID:        "POST-" + ulid.Make().String(),
		StateCode: req.StateCode,
		Platform:  req.Platform,
		Content:   req.Content,
		Status:    status,
		CreatedAt: createdAt.UTC(),
	}
	if status == "archived" {
		record.ArchivedAt = record.CreatedAt
	}
	if err := s.postRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return recordToPost(record), nil
}

// ListPosts lists posts, newest first.
func (s *ContentServiceImpl) ListPosts(ctx context.Context, filters primary.PostFilters) ([]*primary.Post, error) {
	records, err := s.postRepo.List(ctx, secondary.PostFilters{
		StateCode: filters.StateCode,
		Status:    filters.Status,
		Limit:     filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*primary.Post, len(records))
	for i, r := range records {
		posts[i] = recordToPost(r)
	}
	return posts, nil
}

// Subscribe adds an active digest subscriber.
func (s *ContentServiceImpl) Subscribe(ctx context.Context, req primary.SubscribeRequest) (*primary.Subscriber, error) {
	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid email %q: %w", req.Email, err)
	}

	record := &secondary.SubscriberRecord{
		ID:        "SUB-" + ulid.Make().String(),
		Email:     strings.ToLower(addr.Address),
		Name:      strings.TrimSpace(req.Name),
		Status:    "active",
		CreatedAt: s.now().UTC(),
	}
	if record.Name == "" {
		record.Name = addr.Name
	}
	if err := s.subscriberRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return recordToSubscriber(record), nil
}

// Unsubscribe stops digests for an email address.
func (s *ContentServiceImpl) Unsubscribe(ctx context.Context, email string) error {
	return s.subscriberRepo.Unsubscribe(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListSubscribers lists every subscriber.
func (s *ContentServiceImpl) ListSubscribers(ctx context.Context) ([]*primary.Subscriber, error) {
	records, err := s.subscriberRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	subs := make([]*primary.Subscriber, len(records))
	for i, r := range records {
		subs[i] = recordToSubscriber(r)
	}
	return subs, nil
}

// ListEvents lists recent analytics events, newest first.
func (s *ContentServiceImpl) ListEvents(ctx context.Context, eventType string, limit int) ([]*primary.AnalyticsEvent, error) {
	if s.events == nil {
		return nil, fmt.Errorf("analytics events are not readable from this store")
	}
	if limit <= 0 {
		limit = 20
	}

	records, err := s.events.ListEvents(ctx, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*primary.AnalyticsEvent, len(records))
	for i, r := range records {
		events[i] = &primary.AnalyticsEvent{
			ID:        r.ID,
			EventType: r.EventType,
			Payload:   r.Payload,
			CreatedAt: formatTime(r.CreatedAt),
		}
	}
	return events, nil
}

// Helper methods

func recordToPost(r *secondary.PostRecord) *primary.Post {
	return &primary.Post{
		ID:         r.ID,
		StateCode:  r.StateCode,
		Platform:   r.Platform,
		Content:    r.Content,
		Status:     r.Status,
		CreatedAt:  formatTime(r.CreatedAt),
		ArchivedAt: formatTime(r.ArchivedAt),
	}
}

func recordToSubscriber(r *secondary.SubscriberRecord) *primary.Subscriber {
	return &primary.Subscriber{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Status:    r.Status,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

// Ensure ContentServiceImpl implements the interface
var _ primary.ContentService = (*ContentServiceImpl)(nil)
