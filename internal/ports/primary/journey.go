// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import (
	"context"
	"time"
)

// JourneyService defines the primary port for the weekly state journey.
type JourneyService interface {
	// RunWeeklyTransition performs at most one forward step of the journey.
	// now is the invocation time; the service never reads the wall clock.
	RunWeeklyTransition(ctx context.Context, now time.Time) (*TransitionResult, error)

	// StartJourney makes week one current on a freshly seeded journey.
	StartJourney(ctx context.Context, now time.Time) (*State, error)

	// SeedJourney inserts all states in upcoming status.
	SeedJourney(ctx context.Context, req SeedJourneyRequest) (*SeedJourneyResponse, error)

	// GetCurrentState returns the single authoritative current state.
	GetCurrentState(ctx context.Context) (*State, error)

	// ListStates lists states ordered by week. Empty status lists all.
	ListStates(ctx context.Context, status string) ([]*State, error)

	// GetProgress returns counts by status.
	GetProgress(ctx context.Context) (*JourneyProgress, error)

	// VerifyJourney checks every journey invariant and reports violations.
	// It never modifies the store.
	VerifyJourney(ctx context.Context) (*VerifyReport, error)

	// ListTransitionRuns returns recent weekly invocations, newest first.
	ListTransitionRuns(ctx context.Context, limit int) ([]*TransitionRun, error)
}

// TransitionOutcome describes what a weekly invocation did.
type TransitionOutcome string

const (
	// OutcomeAdvanced means one state completed and the next became current.
	OutcomeAdvanced TransitionOutcome = "advanced"
	// OutcomeNoOp means the transition period has not elapsed; nothing changed.
	OutcomeNoOp TransitionOutcome = "no_op"
	// OutcomeJourneyComplete means the journey has finished. Completed is set
	// only on the invocation that completed the final state.
	OutcomeJourneyComplete TransitionOutcome = "journey_complete"
)

// State represents a journey state at the port boundary.
type State struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Capital        string `json:"capital,omitempty"`
	Region         string `json:"region,omitempty"`
	WeekNumber     int    `json:"weekNumber"`
	Status         string `json:"status"`
	StartDate      string `json:"startDate,omitempty"`
	CompletionDate string `json:"completionDate,omitempty"`
}

// SideEffectOutcome reports one best-effort side effect.
type SideEffectOutcome struct {
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Attempts int    `json:"attempts"`
}

// TransitionResult is the summary of one weekly invocation.
type TransitionResult struct {
	Outcome        TransitionOutcome   `json:"outcome"`
	Completed      *State              `json:"completed,omitempty"`
	Current        *State              `json:"current,omitempty"`
	ArchivedPosts  int                 `json:"archivedPosts"`
	SideEffects    []SideEffectOutcome `json:"sideEffects,omitempty"`
	NextEligibleAt string              `json:"nextEligibleAt,omitempty"`
	Message        string              `json:"message,omitempty"`
}

// PartialFailure reports whether any side effect failed.
func (r *TransitionResult) PartialFailure() bool {
	for _, se := range r.SideEffects {
		if !se.Success {
			return true
		}
	}
	return false
}

// SeedJourneyRequest contains the schedule to seed, in any order.
type SeedJourneyRequest struct {
	States []SeedState
}

// SeedState is one row of the journey schedule.
type SeedState struct {
	WeekNumber int
	Code       string
	Name       string
	Capital    string
	Region     string
}

// SeedJourneyResponse contains the result of seeding.
type SeedJourneyResponse struct {
	Created int
}

// JourneyProgress summarizes journey progress.
type JourneyProgress struct {
	Total           int     `json:"total"`
	Upcoming        int     `json:"upcoming"`
	Current         int     `json:"current"`
	Completed       int     `json:"completed"`
	PercentComplete float64 `json:"percentComplete"`
	CurrentState    *State  `json:"currentState,omitempty"`
}

// VerifyReport lists journey invariant violations.
type VerifyReport struct {
	Healthy    bool     `json:"healthy"`
	Checked    int      `json:"checked"`
	Violations []string `json:"violations,omitempty"`
}

// TransitionRun represents one recorded weekly invocation.
type TransitionRun struct {
	ID        string `json:"id"`
	Outcome   string `json:"outcome"`
	FromCode  string `json:"fromCode,omitempty"`
	ToCode    string `json:"toCode,omitempty"`
	Trigger   string `json:"trigger"`
	Message   string `json:"message,omitempty"`
	InvokedAt string `json:"invokedAt"`
}
