package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/ports/secondary"
	"github.com/example/brewquest/internal/telemetry"
)

// EventReviewPublished is the analytics event type written for each daily publish.
const EventReviewPublished = "review_published"

// PlatformSite is the platform recorded on posts created by the daily publish.
const PlatformSite = "site"

// PublishServiceImpl implements the PublishService interface.
type PublishServiceImpl struct {
	stateRepo  secondary.StateRepository
	reviewRepo secondary.ReviewRepository
	postRepo   secondary.PostRepository
	analytics  secondary.AnalyticsSink
	retry      RetryPolicy
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// NewPublishService creates a new PublishService with injected dependencies.
func NewPublishService(
	stateRepo secondary.StateRepository,
	reviewRepo secondary.ReviewRepository,
	postRepo secondary.PostRepository,
	analytics secondary.AnalyticsSink,
	retry RetryPolicy,
	logger *slog.Logger,
	metrics MetricsRecorder,
) *PublishServiceImpl {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &PublishServiceImpl{
		stateRepo:  stateRepo,
		reviewRepo: reviewRepo,
		postRepo:   postRepo,
		analytics:  analytics,
		retry:      retry,
		logger:     logger,
		metrics:    metrics,
	}
}

// RunDailyPublish publishes the current state's review for today.
func (s *PublishServiceImpl) RunDailyPublish(ctx context.Context, now time.Time) (*primary.PublishResult, error) {
	now = now.UTC()
	log := telemetry.RunLogger(s.logger, ctx, "daily_publish")

	current, err := s.stateRepo.GetCurrent(ctx)
	if errors.Is(err, journey.ErrNoCurrentState) {
		err = diagnoseMissingCurrent(ctx, s.stateRepo, err)
		if errors.Is(err, journey.ErrJourneyComplete) {
			result := &primary.PublishResult{Outcome: primary.PublishOutcomeJourneyComplete}
			log.Info("journey complete; nothing to publish")
			s.metrics.ObservePublish(string(result.Outcome))
			return result, nil
		}
	}
	if err != nil {
		log.Error("daily publish failed", "kind", journey.KindOf(err), "error", err)
		return nil, fmt.Errorf("failed to load current state: %w", err)
	}

	day := journey.DayNumber(current.StartDate, now)
	result := &primary.PublishResult{
		State:     recordToState(current),
		DayNumber: day,
	}

	review, err := s.reviewRepo.GetForDay(ctx, current.Code, day)
	if errors.Is(err, journey.ErrNotFound) {
		result.Outcome = primary.PublishOutcomeMissing
		log.Warn("no review scheduled", "state", current.Code, "day", day)
		s.metrics.ObservePublish(string(result.Outcome))
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	if review.Status == "published" {
		result.Outcome = primary.PublishOutcomeAlreadyPublished
		result.Review = recordToReview(review)
		s.metrics.ObservePublish(string(result.Outcome))
		return result, nil
	}

	if err := s.reviewRepo.MarkPublished(ctx, review.ID, now); err != nil {
		return nil, fmt.Errorf("failed to publish review %s: %w", review.ID, err)
	}
	review.Status = "published"
	review.PublishedAt = now
	result.Outcome = primary.PublishOutcomePublished
	result.Review = recordToReview(review)

	// The review is live; the post and event below are best-effort.
	postID := "POST-" + ulid.Make().String()
	result.SideEffects = append(result.SideEffects, s.createPost(ctx, postID, current, review, now))
	if result.SideEffects[0].Success {
		result.PostID = postID
	}
	result.SideEffects = append(result.SideEffects, s.recordEvent(ctx, current, review, day, now))

	for _, se := range result.SideEffects {
		s.metrics.ObserveSideEffect(se.Name, se.Success)
		if !se.Success {
			log.Warn("side effect failed", "effect", se.Name, "error", se.Message)
		}
	}
	s.metrics.ObservePublish(string(result.Outcome))
	log.Info("review published", "state", current.Code, "day", day, "review", review.ID)
	return result, nil
}

func (s *PublishServiceImpl) createPost(ctx context.Context, id string, state *secondary.StateRecord, review *secondary.ReviewRecord, now time.Time) primary.SideEffectOutcome {
	post := &secondary.PostRecord{
		ID:        id,
		StateCode: state.Code,
		Platform:  PlatformSite,
		Content:   fmt.Sprintf("Day %d in %s: %s from %s", review.DayNumber, state.Name, review.BeerName, review.Brewery),
		Status:    "posted",
		CreatedAt: now,
	}
	attempts, err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.postRepo.Create(ctx, post)
	})
	if err != nil {
		outcome := failed(attempts, fmt.Errorf("failed to record post: %w", err))
		outcome.Name = "social_post"
		return outcome
	}
	return primary.SideEffectOutcome{Name: "social_post", Success: true, Message: "posted " + id, Attempts: attempts}
}

func (s *PublishServiceImpl) recordEvent(ctx context.Context, state *secondary.StateRecord, review *secondary.ReviewRecord, day int, now time.Time) primary.SideEffectOutcome {
	const name = "analytics"
	if s.analytics == nil {
		outcome := failed(0, fmt.Errorf("no analytics sink configured"))
		outcome.Name = name
		return outcome
	}

	payload := map[string]any{
		"state":     state.Code,
		"week":      state.WeekNumber,
		"day":       day,
		"reviewId":  review.ID,
		"beer":      review.BeerName,
		"timestamp": now.Format(time.RFC3339),
	}
	attempts, err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.analytics.Record(ctx, EventReviewPublished, payload)
	})
	if err != nil {
		outcome := failed(attempts, fmt.Errorf("failed to record %s event: %w", EventReviewPublished, err))
		outcome.Name = name
		return outcome
	}
	return primary.SideEffectOutcome{Name: name, Success: true, Message: "recorded " + EventReviewPublished, Attempts: attempts}
}

func recordToReview(r *secondary.ReviewRecord) *primary.Review {
	return &primary.Review{
		ID:          r.ID,
		StateCode:   r.StateCode,
		DayNumber:   r.DayNumber,
		BeerName:    r.BeerName,
		Brewery:     r.Brewery,
		Style:       r.Style,
		Rating:      r.Rating,
		Status:      r.Status,
		PublishedAt: formatTime(r.PublishedAt),
	}
}

// Ensure PublishServiceImpl implements the interface
var _ primary.PublishService = (*PublishServiceImpl)(nil)
