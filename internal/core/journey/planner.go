package journey

import (
	"fmt"
	"time"

	"github.com/example/brewquest/internal/core/effects"
)

// EventStateTransition is the analytics event type written for each weekly transition.
const EventStateTransition = "state_transition"

// StateSnapshot is the planner's view of one stored state.
// Zero times mean the column is null.
type StateSnapshot struct {
	Code           string
	Name           string
	WeekNumber     int
	Status         Status
	StartDate      time.Time
	CompletionDate time.Time
}

// Decision is what the weekly planner decided to do.
type Decision string

const (
	// DecisionAdvance completes the current state and starts the next one.
	DecisionAdvance Decision = "advance"
	// DecisionFinish completes the last state; nothing becomes current.
	DecisionFinish Decision = "finish"
	// DecisionWait means the transition period has not elapsed. No writes.
	DecisionWait Decision = "wait"
)

// WeeklyPlanInput contains the inputs needed to plan one weekly transition.
// All values are pre-fetched by the caller - no I/O in the planner.
type WeeklyPlanInput struct {
	Current   StateSnapshot
	Next      *StateSnapshot // nil when no upcoming state remains
	Now       time.Time
	Period    time.Duration // defaults to TransitionPeriod
	Retention time.Duration // defaults to ArchiveRetention
}

// WeeklyPlan represents the planned writes and side effects of a weekly transition.
type WeeklyPlan struct {
	Decision       Decision
	CompleteCode   string
	StartCode      string // Empty for DecisionFinish and DecisionWait
	FromWeek       int
	ToWeek         int
	NextEligibleAt time.Time
	SideEffects    []effects.Effect
}

// PlanWeeklyTransition decides the next forward step of the journey.
// A state must stay current for a full period before it can be completed,
// so repeated invocations within the same week plan DecisionWait.
func PlanWeeklyTransition(input WeeklyPlanInput) (WeeklyPlan, error) {
	cur := input.Current
	if cur.Status != StatusCurrent {
		return WeeklyPlan{}, fmt.Errorf("%w: state %s is %s, want %s", ErrInvalidTransition, cur.Code, cur.Status, StatusCurrent)
	}
	if cur.StartDate.IsZero() {
		return WeeklyPlan{}, fmt.Errorf("%w: current state %s has no start date", ErrInvalidTransition, cur.Code)
	}

	plan := WeeklyPlan{
		CompleteCode:   cur.Code,
		FromWeek:       cur.WeekNumber,
		NextEligibleAt: NextEligibleAt(cur.StartDate, input.Period),
	}

	if input.Now.Before(plan.NextEligibleAt) {
		plan.Decision = DecisionWait
		plan.CompleteCode = ""
		return plan, nil
	}

	if next := input.Next; next != nil {
		if next.Status != StatusUpcoming {
			return WeeklyPlan{}, fmt.Errorf("%w: next state %s is %s, want %s", ErrInvalidTransition, next.Code, next.Status, StatusUpcoming)
		}
		if next.WeekNumber <= cur.WeekNumber {
			return WeeklyPlan{}, fmt.Errorf("%w: next state %s (week %d) does not follow current state %s (week %d)",
				ErrInvalidTransition, next.Code, next.WeekNumber, cur.Code, cur.WeekNumber)
		}
		plan.Decision = DecisionAdvance
		plan.StartCode = next.Code
		plan.ToWeek = next.WeekNumber
	} else {
		plan.Decision = DecisionFinish
	}

	plan.SideEffects = planSideEffects(cur, input.Next, input.Now, input.Retention)
	return plan, nil
}

// planSideEffects lists the best-effort work that follows a committed transition.
// Order: archive stale posts, record analytics, send the digest.
func planSideEffects(completed StateSnapshot, next *StateSnapshot, now time.Time, retention time.Duration) []effects.Effect {
	if retention <= 0 {
		retention = ArchiveRetention
	}

	payload := map[string]any{
		"fromState": completed.Code,
		"fromWeek":  completed.WeekNumber,
		"toState":   nil,
		"toWeek":    nil,
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if next != nil {
		payload["toState"] = next.Code
		payload["toWeek"] = next.WeekNumber
	} else {
		payload["journeyComplete"] = true
	}

	return []effects.Effect{
		effects.ArchivePostsEffect{OlderThan: now.Add(-retention), At: now},
		effects.AnalyticsEffect{EventType: EventStateTransition, Payload: payload},
		effects.DigestEffect{StateCode: completed.Code, StateName: completed.Name, WeekNumber: completed.WeekNumber},
	}
}
