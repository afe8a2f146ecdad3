package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/primary"
)

// JourneyAdapter is a thin adapter that translates CLI operations to JourneyService calls.
// It depends only on the JourneyService interface, enabling easy testing with mocks.
type JourneyAdapter struct {
	service primary.JourneyService
	out     io.Writer
}

// NewJourneyAdapter creates a new JourneyAdapter with the given service.
func NewJourneyAdapter(service primary.JourneyService, out io.Writer) *JourneyAdapter {
	return &JourneyAdapter{
		service: service,
		out:     out,
	}
}

// Seed inserts the schedule in upcoming status.
func (a *JourneyAdapter) Seed(ctx context.Context, states []primary.SeedState) (*primary.SeedJourneyResponse, error) {
	resp, err := a.service.SeedJourney(ctx, primary.SeedJourneyRequest{States: states})
	if err != nil {
		return nil, fmt.Errorf("failed to seed journey: %w", err)
	}

	fmt.Fprintf(a.out, "%s Seeded %d states\n", okMark(), resp.Created)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Start the journey:")
	fmt.Fprintln(a.out, "  brewquest journey start")
	return resp, nil
}

// Start makes week one current.
func (a *JourneyAdapter) Start(ctx context.Context, now time.Time) (*primary.State, error) {
	state, err := a.service.StartJourney(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start journey: %w", err)
	}

	fmt.Fprintf(a.out, "%s Journey started in %s (week %d)\n", okMark(), state.Name, state.WeekNumber)
	return state, nil
}

// Current displays the current state.
func (a *JourneyAdapter) Current(ctx context.Context) (*primary.State, error) {
	state, err := a.service.GetCurrentState(ctx)
	if errors.Is(err, journey.ErrJourneyComplete) {
		fmt.Fprintln(a.out, "Journey complete! No state is current.")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current state: %w", err)
	}

	fmt.Fprintf(a.out, "\nWeek %d: %s (%s)\n", state.WeekNumber, state.Name, state.Code)
	if state.Capital != "" {
		fmt.Fprintf(a.out, "Capital: %s\n", state.Capital)
	}
	if state.Region != "" {
		fmt.Fprintf(a.out, "Region:  %s\n", state.Region)
	}
	fmt.Fprintf(a.out, "Started: %s\n", state.StartDate)
	fmt.Fprintln(a.out)
	return state, nil
}

// List lists states with an optional status filter.
func (a *JourneyAdapter) List(ctx context.Context, status string) ([]*primary.State, error) {
	states, err := a.service.ListStates(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	if len(states) == 0 {
		fmt.Fprintln(a.out, "No states found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Seed the journey:")
		fmt.Fprintln(a.out, "  brewquest journey seed")
		return states, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WEEK\tCODE\tNAME\tSTATUS\tSTARTED\tCOMPLETED")
	fmt.Fprintln(w, "----\t----\t----\t------\t-------\t---------")
	for _, s := range states {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.WeekNumber,
			s.Code,
			s.Name,
			s.Status,
			dash(s.StartDate),
			dash(s.CompletionDate),
		)
	}
	w.Flush()
	return states, nil
}

// Progress displays counts by status.
func (a *JourneyAdapter) Progress(ctx context.Context) (*primary.JourneyProgress, error) {
	progress, err := a.service.GetProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	fmt.Fprintf(a.out, "Completed: %d/%d (%.0f%%)\n", progress.Completed, progress.Total, progress.PercentComplete)
	fmt.Fprintf(a.out, "Current:   %d\n", progress.Current)
	fmt.Fprintf(a.out, "Upcoming:  %d\n", progress.Upcoming)
	if progress.CurrentState != nil {
		fmt.Fprintf(a.out, "Now in:    %s (week %d)\n", progress.CurrentState.Name, progress.CurrentState.WeekNumber)
	}
	return progress, nil
}

// Verify runs the invariant check and prints each violation.
// A report with violations is returned alongside a non-nil error so the
// command exits non-zero.
func (a *JourneyAdapter) Verify(ctx context.Context) (*primary.VerifyReport, error) {
	report, err := a.service.VerifyJourney(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify journey: %w", err)
	}

	if report.Healthy {
		fmt.Fprintf(a.out, "%s Journey healthy (%d states checked)\n", okMark(), report.Checked)
		return report, nil
	}

	fmt.Fprintf(a.out, "%s Journey has %d violation(s):\n", failMark(), len(report.Violations))
	for _, v := range report.Violations {
		fmt.Fprintf(a.out, "  - %s\n", v)
	}
	return report, fmt.Errorf("journey invariants violated")
}

// History lists recent weekly invocations.
func (a *JourneyAdapter) History(ctx context.Context, limit int) ([]*primary.TransitionRun, error) {
	runs, err := a.service.ListTransitionRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No transition runs recorded.")
		return runs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "INVOKED\tOUTCOME\tFROM\tTO\tTRIGGER\tMESSAGE")
	fmt.Fprintln(w, "-------\t-------\t----\t--\t-------\t-------")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.InvokedAt,
			r.Outcome,
			dash(r.FromCode),
			dash(r.ToCode),
			r.Trigger,
			r.Message,
		)
	}
	w.Flush()
	return runs, nil
}

// Advance runs one weekly transition and prints its summary.
func (a *JourneyAdapter) Advance(ctx context.Context, now time.Time) (*primary.TransitionResult, error) {
	result, err := a.service.RunWeeklyTransition(ctx, now)
	if err != nil {
		return nil, err
	}
	PrintTransitionResult(a.out, result)
	return result, nil
}

// PrintTransitionResult writes a human-readable transition summary.
func PrintTransitionResult(out io.Writer, result *primary.TransitionResult) {
	switch result.Outcome {
	case primary.OutcomeAdvanced:
		fmt.Fprintf(out, "%s Advanced %s → %s\n", okMark(), describe(result.Completed), describe(result.Current))
		fmt.Fprintf(out, "  Archived posts: %d\n", result.ArchivedPosts)
	case primary.OutcomeJourneyComplete:
		if result.Completed != nil {
			fmt.Fprintf(out, "%s Journey complete! Finished %s\n", okMark(), describe(result.Completed))
		} else {
			fmt.Fprintln(out, "Journey already complete. Nothing to do.")
		}
	case primary.OutcomeNoOp:
		fmt.Fprintf(out, "No transition: %s is still current\n", describe(result.Current))
		if result.NextEligibleAt != "" {
			fmt.Fprintf(out, "  Next eligible at %s\n", result.NextEligibleAt)
		}
	}
	if result.Message != "" {
		fmt.Fprintf(out, "  %s\n", result.Message)
	}
	PrintSideEffects(out, result.SideEffects)
}

// PrintSideEffects writes one line per side effect.
func PrintSideEffects(out io.Writer, effects []primary.SideEffectOutcome) {
	if len(effects) == 0 {
		return
	}
	fmt.Fprintln(out, "  Side effects:")
	for _, se := range effects {
		mark := okMark()
		if !se.Success {
			mark = failMark()
		}
		line := fmt.Sprintf("    %s %s (attempts: %d)", mark, se.Name, se.Attempts)
		if se.Message != "" {
			line += ": " + se.Message
		}
		fmt.Fprintln(out, line)
	}
}

func describe(s *primary.State) string {
	if s == nil {
		return "(none)"
	}
	return fmt.Sprintf("%s (week %d)", s.Name, s.WeekNumber)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func okMark() string {
	return color.New(color.FgGreen).Sprint("✓")
}

func failMark() string {
	return color.New(color.FgRed).Sprint("✗")
}
