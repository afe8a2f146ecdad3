// Package journey contains the pure business logic for the weekly state journey.
// This is part of the Functional Core - no I/O, only pure functions.
package journey

import (
	"fmt"
	"time"
)

// Status represents the lifecycle stage of a journey state.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCurrent   Status = "current"
	StatusCompleted Status = "completed"
)

const (
	// TransitionPeriod is the minimum time a state stays current.
	TransitionPeriod = 7 * 24 * time.Hour

	// ArchiveRetention is the age after which posts are archived on transition.
	ArchiveRetention = 14 * 24 * time.Hour

	// DaysPerState is the number of daily reviews published per state.
	DaysPerState = 7
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUpcoming, StatusCurrent, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q (want upcoming, current or completed)", s)
	}
}

// StatusTransitionResult contains the result of a status transition.
// This is a value object that captures both the new status and the
// timestamps that change with it.
type StatusTransitionResult struct {
	NewStatus      Status
	StartDate      *time.Time // Set when transitioning to current
	CompletionDate *time.Time // Set when transitioning to completed
	ClearCompleted bool       // Completion date must be removed
}

// ApplyStatusTransition applies a status transition and returns the result.
// Rules:
//   - current sets StartDate to now
//   - completed sets CompletionDate to now
//   - any other status clears CompletionDate
//
// The caller passes the current time to keep this testable.
func ApplyStatusTransition(newStatus Status, now time.Time) StatusTransitionResult {
	result := StatusTransitionResult{
		NewStatus: newStatus,
	}

	switch newStatus {
	case StatusCurrent:
		result.StartDate = &now
		result.ClearCompleted = true
	case StatusCompleted:
		result.CompletionDate = &now
	default:
		result.ClearCompleted = true
	}

	return result
}

// InitialStatus returns the status every seeded state starts in.
func InitialStatus() Status {
	return StatusUpcoming
}

// NextEligibleAt returns the earliest time the current state may be completed.
func NextEligibleAt(startDate time.Time, period time.Duration) time.Time {
	if period <= 0 {
		period = TransitionPeriod
	}
	return startDate.Add(period)
}

// HasPeriodElapsed reports whether a full transition period has passed since startDate.
func HasPeriodElapsed(startDate, now time.Time, period time.Duration) bool {
	return !now.Before(NextEligibleAt(startDate, period))
}

// DayNumber returns the 1-based day of the current state's week, capped at DaysPerState.
// Times before startDate count as day 1.
func DayNumber(startDate, now time.Time) int {
	if now.Before(startDate) {
		return 1
	}
	day := int(now.Sub(startDate)/(24*time.Hour)) + 1
	if day > DaysPerState {
		return DaysPerState
	}
	return day
}
