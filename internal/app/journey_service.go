package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ctxutil"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/ports/secondary"
	"github.com/example/brewquest/internal/telemetry"
)

// RunOutcomeFailed is the run history outcome for an invocation that returned an error.
const RunOutcomeFailed = "failed"

// JourneyServiceImpl implements the JourneyService interface.
type JourneyServiceImpl struct {
	stateRepo secondary.StateRepository
	runRepo   secondary.TransitionRunRepository
	executor  EffectExecutor
	logger    *slog.Logger
	metrics   MetricsRecorder
}

// NewJourneyService creates a new JourneyService with injected dependencies.
// runRepo may be nil, in which case invocations are not recorded.
func NewJourneyService(
	stateRepo secondary.StateRepository,
	runRepo secondary.TransitionRunRepository,
	executor EffectExecutor,
	logger *slog.Logger,
	metrics MetricsRecorder,
) *JourneyServiceImpl {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &JourneyServiceImpl{
		stateRepo: stateRepo,
		runRepo:   runRepo,
		executor:  executor,
		logger:    logger,
		metrics:   metrics,
	}
}

// RunWeeklyTransition performs at most one forward step of the journey.
// No-op and terminal calls leave the states table untouched; every call,
// including those, still appends one row to the transition run history.
func (s *JourneyServiceImpl) RunWeeklyTransition(ctx context.Context, now time.Time) (*primary.TransitionResult, error) {
	now = now.UTC()
	log := telemetry.RunLogger(s.logger, ctx, "weekly_transition")

	result, fromCode, toCode, err := s.runWeeklyTransition(ctx, now, log)

	outcome := RunOutcomeFailed
	if err == nil {
		outcome = string(result.Outcome)
	}
	s.metrics.ObserveTransition(outcome)
	s.recordRun(ctx, log, now, outcome, fromCode, toCode, result, err)

	if err != nil {
		log.Error("weekly transition failed", "kind", journey.KindOf(err), "error", err)
		return nil, err
	}
	log.Info("weekly transition finished",
		"outcome", result.Outcome,
		"from", fromCode,
		"to", toCode,
		"archived_posts", result.ArchivedPosts,
		"partial_failure", result.PartialFailure(),
	)
	return result, nil
}

func (s *JourneyServiceImpl) runWeeklyTransition(ctx context.Context, now time.Time, log *slog.Logger) (*primary.TransitionResult, string, string, error) {
	current, err := s.stateRepo.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, journey.ErrNoCurrentState) {
			err = diagnoseMissingCurrent(ctx, s.stateRepo, err)
			if errors.Is(err, journey.ErrJourneyComplete) {
				return &primary.TransitionResult{
					Outcome: primary.OutcomeJourneyComplete,
					Message: err.Error() + "; nothing to do",
				}, "", "", nil
			}
			return nil, "", "", err
		}
		return nil, "", "", fmt.Errorf("failed to load current state: %w", err)
	}
	s.metrics.SetCurrentWeek(current.WeekNumber)

	// A state stays current for a full period; earlier calls are retries.
	if !current.StartDate.IsZero() && !journey.HasPeriodElapsed(current.StartDate, now, journey.TransitionPeriod) {
		return waitResult(current, journey.NextEligibleAt(current.StartDate, journey.TransitionPeriod)), current.Code, "", nil
	}

	next, err := s.stateRepo.GetNextUpcoming(ctx)
	if err != nil && !errors.Is(err, journey.ErrJourneyComplete) {
		return nil, current.Code, "", fmt.Errorf("failed to load next state: %w", err)
	}

	input := journey.WeeklyPlanInput{
		Current: recordToSnapshot(current),
		Now:     now,
	}
	if next != nil {
		snapshot := recordToSnapshot(next)
		input.Next = &snapshot
	}

	plan, err := journey.PlanWeeklyTransition(input)
	if err != nil {
		return nil, current.Code, "", fmt.Errorf("failed to plan transition: %w", err)
	}
	if plan.Decision == journey.DecisionWait {
		return waitResult(current, plan.NextEligibleAt), current.Code, "", nil
	}

	if err := s.applyTransition(ctx, log, current, plan.StartCode, now); err != nil {
		return nil, current.Code, plan.StartCode, err
	}

	completed := recordToState(current)
	completed.Status = string(journey.StatusCompleted)
	completed.CompletionDate = formatTime(now)

	result := &primary.TransitionResult{Completed: completed}
	if plan.Decision == journey.DecisionAdvance {
		started := recordToState(next)
		started.Status = string(journey.StatusCurrent)
		started.StartDate = formatTime(now)
		result.Outcome = primary.OutcomeAdvanced
		result.Current = started
		result.Message = fmt.Sprintf("advanced from %s (week %d) to %s (week %d)", current.Code, plan.FromWeek, next.Code, plan.ToWeek)
		s.metrics.SetCurrentWeek(next.WeekNumber)
	} else {
		result.Outcome = primary.OutcomeJourneyComplete
		result.Message = fmt.Sprintf("completed final state %s (week %d); journey complete", current.Code, plan.FromWeek)
	}

	if s.executor != nil {
		report := s.executor.Execute(ctx, plan.SideEffects)
		result.ArchivedPosts = report.ArchivedPosts
		result.SideEffects = report.Outcomes
	}

	return result, current.Code, plan.StartCode, nil
}

// diagnoseMissingCurrent tells a journey that never started, or one that has
// finished, apart from a corrupt store. It only reads.
func diagnoseMissingCurrent(ctx context.Context, repo secondary.StateRepository, cause error) error {
	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to count states: %w", err)
	}
	return journey.DiagnoseMissingCurrent(counts, cause)
}

// applyTransition writes the transition. Stores without transactions get
// completed-then-current ordering, one retry of the second write, and a
// restore of the first write if the second never lands.
func (s *JourneyServiceImpl) applyTransition(ctx context.Context, log *slog.Logger, current *secondary.StateRecord, toCode string, now time.Time) error {
	if txRepo, ok := s.stateRepo.(secondary.TransactionalStateRepository); ok {
		if err := txRepo.Advance(ctx, current.Code, toCode, now); err != nil {
			return fmt.Errorf("failed to apply transition: %w", err)
		}
		return nil
	}

	if err := s.stateRepo.MarkCompleted(ctx, current.Code, now); err != nil {
		return fmt.Errorf("failed to complete state %s: %w", current.Code, err)
	}
	if toCode == "" {
		return nil
	}

	err := s.stateRepo.MarkCurrent(ctx, toCode, now)
	if err != nil {
		log.Warn("retrying start of next state", "state", toCode, "error", err)
		err = s.stateRepo.MarkCurrent(ctx, toCode, now)
	}
	if err == nil {
		return nil
	}

	if restoreErr := s.stateRepo.RestoreCurrent(ctx, current.Code, current.StartDate); restoreErr != nil {
		log.Error("failed to restore state after failed transition", "state", current.Code, "error", restoreErr)
		return fmt.Errorf("failed to start state %s: %w (restoring %s also failed: %v)", toCode, err, current.Code, restoreErr)
	}
	return fmt.Errorf("failed to start state %s, restored %s as current: %w", toCode, current.Code, err)
}

func (s *JourneyServiceImpl) recordRun(ctx context.Context, log *slog.Logger, now time.Time, outcome, fromCode, toCode string, result *primary.TransitionResult, runErr error) {
	if s.runRepo == nil {
		return
	}

	message := ""
	switch {
	case runErr != nil:
		message = runErr.Error()
	case result != nil:
		message = result.Message
	}

	id := telemetry.RunID(ctx)
	if id == "" {
		id = ulid.Make().String()
	}

	run := &secondary.TransitionRunRecord{
		ID:        id,
		Outcome:   outcome,
		FromCode:  fromCode,
		ToCode:    toCode,
		Trigger:   ctxutil.TriggerFromContext(ctx),
		Message:   message,
		InvokedAt: now,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		log.Warn("failed to record transition run", "error", err)
	}
}

// StartJourney makes week one current on a freshly seeded journey.
func (s *JourneyServiceImpl) StartJourney(ctx context.Context, now time.Time) (*primary.State, error) {
	records, err := s.stateRepo.ListByStatus(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	guardCtx := journey.StartContext{Total: len(records)}
	for _, r := range records {
		if r.Status == string(journey.StatusUpcoming) {
			guardCtx.Upcoming++
		}
	}
	if len(records) > 0 {
		guardCtx.FirstCode = records[0].Code
	}
	if result := journey.CanStartJourney(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	first := records[0]
	if err := s.stateRepo.MarkCurrent(ctx, first.Code, now.UTC()); err != nil {
		return nil, fmt.Errorf("failed to start journey: %w", err)
	}
	s.metrics.SetCurrentWeek(first.WeekNumber)
	s.logger.Info("journey started", "state", first.Code, "week", first.WeekNumber)

	started, err := s.stateRepo.GetByCode(ctx, first.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch started state: %w", err)
	}
	return recordToState(started), nil
}

// SeedJourney inserts all states in upcoming status.
func (s *JourneyServiceImpl) SeedJourney(ctx context.Context, req primary.SeedJourneyRequest) (*primary.SeedJourneyResponse, error) {
	counts, err := s.stateRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count states: %w", err)
	}
	existing := 0
	for _, n := range counts {
		existing += n
	}

	if result := journey.CanSeedJourney(journey.SeedContext{Existing: existing, Incoming: len(req.States)}); !result.Allowed {
		return nil, result.Error()
	}

	seeds := make([]primary.SeedState, len(req.States))
	copy(seeds, req.States)
	sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].WeekNumber < seeds[j].WeekNumber })

	// Validate the whole schedule before the first insert.
	snapshots := make([]journey.StateSnapshot, len(seeds))
	for i, seed := range seeds {
		snapshots[i] = journey.StateSnapshot{Code: seed.Code, Name: seed.Name, WeekNumber: seed.WeekNumber, Status: journey.InitialStatus()}
	}
	if violations := journey.CheckInvariants(snapshots); len(violations) > 0 {
		return nil, fmt.Errorf("invalid schedule: %s", violations[0])
	}

	for _, seed := range seeds {
		record := &secondary.StateRecord{
			Code:       seed.Code,
			Name:       seed.Name,
			Capital:    seed.Capital,
			Region:     seed.Region,
			WeekNumber: seed.WeekNumber,
			Status:     string(journey.InitialStatus()),
		}
		if err := s.stateRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to seed state %s: %w", seed.Code, err)
		}
	}

	s.logger.Info("journey seeded", "states", len(seeds))
	return &primary.SeedJourneyResponse{Created: len(seeds)}, nil
}

// GetCurrentState returns the single authoritative current state. A journey
// that has not started or has finished reports ErrJourneyNotInitialized or
// ErrJourneyComplete instead of ErrNoCurrentState.
func (s *JourneyServiceImpl) GetCurrentState(ctx context.Context) (*primary.State, error) {
	record, err := s.stateRepo.GetCurrent(ctx)
	if errors.Is(err, journey.ErrNoCurrentState) {
		return nil, diagnoseMissingCurrent(ctx, s.stateRepo, err)
	}
	if err != nil {
		return nil, err
	}
	return recordToState(record), nil
}

// ListStates lists states ordered by week. Empty status lists all.
func (s *JourneyServiceImpl) ListStates(ctx context.Context, status string) ([]*primary.State, error) {
	if status != "" {
		if _, err := journey.ParseStatus(status); err != nil {
			return nil, err
		}
	}

	records, err := s.stateRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	states := make([]*primary.State, len(records))
	for i, r := range records {
		states[i] = recordToState(r)
	}
	return states, nil
}

// GetProgress returns counts by status.
func (s *JourneyServiceImpl) GetProgress(ctx context.Context) (*primary.JourneyProgress, error) {
	records, err := s.stateRepo.ListByStatus(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	snapshots := make([]journey.StateSnapshot, len(records))
	var current *secondary.StateRecord
	for i, r := range records {
		snapshots[i] = recordToSnapshot(r)
		if r.Status == string(journey.StatusCurrent) {
			current = r
		}
	}
	p := journey.Summarize(snapshots)

	progress := &primary.JourneyProgress{
		Total:           p.Total,
		Upcoming:        p.Upcoming,
		Current:         p.Current,
		Completed:       p.Completed,
		PercentComplete: p.PercentComplete(),
	}
	// Several current rows is corruption; report none rather than pick one.
	if p.Current == 1 {
		progress.CurrentState = recordToState(current)
	}
	return progress, nil
}

// VerifyJourney checks every journey invariant and reports violations.
func (s *JourneyServiceImpl) VerifyJourney(ctx context.Context) (*primary.VerifyReport, error) {
	records, err := s.stateRepo.ListByStatus(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	snapshots := make([]journey.StateSnapshot, len(records))
	for i, r := range records {
		snapshots[i] = recordToSnapshot(r)
	}

	report := &primary.VerifyReport{Checked: len(records)}
	for _, v := range journey.CheckInvariants(snapshots) {
		report.Violations = append(report.Violations, v.String())
	}
	report.Healthy = len(report.Violations) == 0
	return report, nil
}

// ListTransitionRuns returns recent weekly invocations, newest first.
func (s *JourneyServiceImpl) ListTransitionRuns(ctx context.Context, limit int) ([]*primary.TransitionRun, error) {
	if s.runRepo == nil {
		return nil, nil
	}

	records, err := s.runRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition runs: %w", err)
	}

	runs := make([]*primary.TransitionRun, len(records))
	for i, r := range records {
		runs[i] = &primary.TransitionRun{
			ID:        r.ID,
			Outcome:   r.Outcome,
			FromCode:  r.FromCode,
			ToCode:    r.ToCode,
			Trigger:   r.Trigger,
			Message:   r.Message,
			InvokedAt: formatTime(r.InvokedAt),
		}
	}
	return runs, nil
}

func waitResult(current *secondary.StateRecord, eligibleAt time.Time) *primary.TransitionResult {
	return &primary.TransitionResult{
		Outcome:        primary.OutcomeNoOp,
		Current:        recordToState(current),
		NextEligibleAt: formatTime(eligibleAt),
		Message:        fmt.Sprintf("%s has been current since %s; next transition at %s", current.Code, formatTime(current.StartDate), formatTime(eligibleAt)),
	}
}

// Helper methods

func recordToSnapshot(r *secondary.StateRecord) journey.StateSnapshot {
	return journey.StateSnapshot{
		Code:           r.Code,
		Name:           r.Name,
		WeekNumber:     r.WeekNumber,
		Status:         journey.Status(r.Status),
		StartDate:      r.StartDate,
		CompletionDate: r.CompletionDate,
	}
}

func recordToState(r *secondary.StateRecord) *primary.State {
	return &primary.State{
		Code:           r.Code,
		Name:           r.Name,
		Capital:        r.Capital,
		Region:         r.Region,
		WeekNumber:     r.WeekNumber,
		Status:         r.Status,
		StartDate:      formatTime(r.StartDate),
		CompletionDate: formatTime(r.CompletionDate),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Ensure JourneyServiceImpl implements the interface
var _ primary.JourneyService = (*JourneyServiceImpl)(nil)
