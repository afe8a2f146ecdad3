package journey

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
	Kind    error  // Sentinel the refusal maps to (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
// The error wraps Kind so callers can match it with errors.Is.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Kind == nil {
		return fmt.Errorf("%s", r.Reason)
	}
	return fmt.Errorf("%w: %s", r.Kind, r.Reason)
}

func deny(kind error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Kind: kind}
}

// StateContext provides context for single-state transition guards.
// Populated by the caller from the stored record.
type StateContext struct {
	Code   string
	Exists bool
	Status Status
}

// CanMarkCompleted evaluates whether a state may move to completed.
// Rule: only the current state can be completed.
func CanMarkCompleted(ctx StateContext) GuardResult {
	if !ctx.Exists {
		return deny(ErrNotFound, "state %s does not exist", ctx.Code)
	}
	if ctx.Status != StatusCurrent {
		return deny(ErrInvalidTransition, "cannot complete state %s: status is %s, want %s", ctx.Code, ctx.Status, StatusCurrent)
	}
	return GuardResult{Allowed: true}
}

// CanMarkCurrent evaluates whether a state may become current.
// Rule: only upcoming states can become current.
func CanMarkCurrent(ctx StateContext) GuardResult {
	if !ctx.Exists {
		return deny(ErrNotFound, "state %s does not exist", ctx.Code)
	}
	if ctx.Status != StatusUpcoming {
		return deny(ErrInvalidTransition, "cannot make state %s current: status is %s, want %s", ctx.Code, ctx.Status, StatusUpcoming)
	}
	return GuardResult{Allowed: true}
}

// CanRestoreCurrent evaluates whether a completed state may be put back to current.
// Only used to compensate a half-applied transition.
func CanRestoreCurrent(ctx StateContext) GuardResult {
	if !ctx.Exists {
		return deny(ErrNotFound, "state %s does not exist", ctx.Code)
	}
	if ctx.Status != StatusCompleted {
		return deny(ErrInvalidTransition, "cannot restore state %s: status is %s, want %s", ctx.Code, ctx.Status, StatusCompleted)
	}
	return GuardResult{Allowed: true}
}

// StartContext provides context for starting a fresh journey.
type StartContext struct {
	Total     int
	Upcoming  int
	FirstCode string
}

// CanStartJourney evaluates whether week one can be made current.
// Rule: the journey must be seeded and nothing may have started yet.
func CanStartJourney(ctx StartContext) GuardResult {
	if ctx.Total == 0 {
		return deny(ErrJourneyNotInitialized, "no states seeded. Run: brewquest journey seed")
	}
	if ctx.Upcoming != ctx.Total {
		return deny(ErrInvalidTransition, "journey already started (%d of %d states upcoming)", ctx.Upcoming, ctx.Total)
	}
	return GuardResult{Allowed: true}
}

// SeedContext provides context for seeding the journey.
type SeedContext struct {
	Existing int
	Incoming int
}

// CanSeedJourney evaluates whether states may be seeded.
// Rule: seeding only targets an empty store.
func CanSeedJourney(ctx SeedContext) GuardResult {
	if ctx.Incoming == 0 {
		return deny(nil, "seed data contains no states")
	}
	if ctx.Existing > 0 {
		return deny(ErrInvalidTransition, "journey already seeded with %d states", ctx.Existing)
	}
	return GuardResult{Allowed: true}
}
