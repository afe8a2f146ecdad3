package journey

import (
	"fmt"
	"sort"
)

// Invariant rule names reported in violations.
const (
	RuleUniqueWeek         = "unique_week"
	RuleUniqueCode         = "unique_code"
	RuleSingleCurrent      = "single_current"
	RuleCompletedPrefix    = "completed_prefix"
	RuleCurrentIsNext      = "current_is_next"
	RuleCompletionDate     = "completion_date"
	RuleStartDate          = "start_date"
	RulePositiveWeekNumber = "positive_week"
)

// Violation describes one broken journey invariant.
type Violation struct {
	Rule    string
	Code    string
	Message string
}

func (v Violation) String() string {
	if v.Code == "" {
		return fmt.Sprintf("[%s] %s", v.Rule, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Rule, v.Code, v.Message)
}

// Progress summarizes how far the journey has advanced.
type Progress struct {
	Total     int
	Upcoming  int
	Current   int
	Completed int
}

// Started reports whether any state has left upcoming.
func (p Progress) Started() bool { return p.Current > 0 || p.Completed > 0 }

// Finished reports whether every state is completed.
func (p Progress) Finished() bool { return p.Total > 0 && p.Completed == p.Total }

// PercentComplete returns completed states as a percentage of the total.
func (p Progress) PercentComplete() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) * 100 / float64(p.Total)
}

// Summarize counts states by status.
func Summarize(states []StateSnapshot) Progress {
	p := Progress{Total: len(states)}
	for _, s := range states {
		switch s.Status {
		case StatusUpcoming:
			p.Upcoming++
		case StatusCurrent:
			p.Current++
		case StatusCompleted:
			p.Completed++
		}
	}
	return p
}

// CheckInvariants validates the whole journey and returns every violation found.
// It never repairs anything: a corrupt journey needs an operator.
func CheckInvariants(states []StateSnapshot) []Violation {
	sorted := make([]StateSnapshot, len(states))
	copy(sorted, states)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].WeekNumber < sorted[j].WeekNumber })

	var violations []Violation
	add := func(rule, code, format string, args ...any) {
		violations = append(violations, Violation{Rule: rule, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	weeks := make(map[int]string, len(sorted))
	codes := make(map[string]bool, len(sorted))
	for _, s := range sorted {
		if s.WeekNumber <= 0 {
			add(RulePositiveWeekNumber, s.Code, "week number %d is not positive", s.WeekNumber)
		}
		if other, ok := weeks[s.WeekNumber]; ok {
			add(RuleUniqueWeek, s.Code, "week %d already assigned to %s", s.WeekNumber, other)
		}
		weeks[s.WeekNumber] = s.Code
		if codes[s.Code] {
			add(RuleUniqueCode, s.Code, "code appears more than once")
		}
		codes[s.Code] = true

		completed := s.Status == StatusCompleted
		if completed && s.CompletionDate.IsZero() {
			add(RuleCompletionDate, s.Code, "completed without a completion date")
		}
		if !completed && !s.CompletionDate.IsZero() {
			add(RuleCompletionDate, s.Code, "%s but has a completion date", s.Status)
		}
		if s.Status != StatusUpcoming && s.StartDate.IsZero() {
			add(RuleStartDate, s.Code, "%s without a start date", s.Status)
		}
	}

	progress := Summarize(sorted)
	if progress.Current > 1 {
		add(RuleSingleCurrent, "", "%d states are current", progress.Current)
	}
	if progress.Current == 0 && progress.Completed > 0 && !progress.Finished() {
		add(RuleSingleCurrent, "", "journey in progress with no current state (%d of %d completed)", progress.Completed, progress.Total)
	}

	// Completed states form a prefix; the first non-completed state is the current one.
	firstOpen := -1
	for i, s := range sorted {
		if s.Status != StatusCompleted {
			if firstOpen < 0 {
				firstOpen = i
			}
			continue
		}
		if firstOpen >= 0 {
			add(RuleCompletedPrefix, s.Code, "completed (week %d) after non-completed %s (week %d)",
				s.WeekNumber, sorted[firstOpen].Code, sorted[firstOpen].WeekNumber)
		}
	}
	for i, s := range sorted {
		if s.Status == StatusCurrent && firstOpen >= 0 && i != firstOpen {
			add(RuleCurrentIsNext, s.Code, "current (week %d) but %s (week %d) is not completed",
				s.WeekNumber, sorted[firstOpen].Code, sorted[firstOpen].WeekNumber)
		}
	}

	return violations
}

// DiagnoseMissingCurrent classifies a store that has no unique current state,
// given its counts by status. A store where nothing has started yields
// ErrJourneyNotInitialized and a finished one yields ErrJourneyComplete.
// Anything else is corrupt and cause is returned unchanged.
func DiagnoseMissingCurrent(counts map[string]int, cause error) error {
	total := 0
	for _, n := range counts {
		total += n
	}
	done := counts[string(StatusCompleted)]
	cur := counts[string(StatusCurrent)]

	switch {
	case total == 0:
		return fmt.Errorf("%w: no states seeded", ErrJourneyNotInitialized)
	case cur == 0 && done == 0:
		return fmt.Errorf("%w: %d states seeded but none started. Run: brewquest journey start", ErrJourneyNotInitialized, total)
	case done == total:
		return fmt.Errorf("%w: all %d states completed", ErrJourneyComplete, total)
	default:
		return cause
	}
}
