package primary

import (
	"context"
	"time"
)

// PublishService defines the primary port for the daily publish process.
type PublishService interface {
	// RunDailyPublish publishes the current state's review for today.
	// Re-running on the same day is a no-op.
	RunDailyPublish(ctx context.Context, now time.Time) (*PublishResult, error)
}

// PublishOutcome describes what a daily invocation did.
type PublishOutcome string

const (
	// PublishOutcomePublished means a draft review was published.
	PublishOutcomePublished PublishOutcome = "published"
	// PublishOutcomeAlreadyPublished means today's review was already live.
	PublishOutcomeAlreadyPublished PublishOutcome = "already_published"
	// PublishOutcomeMissing means no review is scheduled for today.
	PublishOutcomeMissing PublishOutcome = "missing_review"
	// PublishOutcomeJourneyComplete means every state is completed.
	PublishOutcomeJourneyComplete PublishOutcome = "journey_complete"
)

// PublishResult is the summary of one daily invocation.
type PublishResult struct {
	Outcome     PublishOutcome      `json:"outcome"`
	State       *State              `json:"state,omitempty"`
	DayNumber   int                 `json:"dayNumber"`
	Review      *Review             `json:"review,omitempty"`
	PostID      string              `json:"postId,omitempty"`
	SideEffects []SideEffectOutcome `json:"sideEffects,omitempty"`
}

// DigestService defines the primary port for digest emails.
type DigestService interface {
	// SendDigest emails every active subscriber about a completed state.
	SendDigest(ctx context.Context, req DigestRequest) (*DigestReport, error)
}

// DigestRequest identifies the completed state to summarize.
type DigestRequest struct {
	StateCode  string
	StateName  string
	WeekNumber int
}

// DigestReport counts per-recipient delivery results.
type DigestReport struct {
	SuccessCount int
	FailureCount int
	Failures     []string // "email: error" for each failed recipient
}
