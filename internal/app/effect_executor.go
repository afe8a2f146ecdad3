// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/brewquest/internal/core/effects"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" for post-transition work. Every effect is
// best-effort: a failure is reported, never returned.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) *EffectReport
}

// EffectReport collects the outcome of each executed effect.
type EffectReport struct {
	Outcomes      []primary.SideEffectOutcome
	ArchivedPosts int
}

// DefaultEffectExecutor implements EffectExecutor against the content stores,
// the analytics sink, and the digest service.
type DefaultEffectExecutor struct {
	posts     secondary.PostRepository
	analytics secondary.AnalyticsSink
	digest    primary.DigestService
	retry     RetryPolicy
	logger    *slog.Logger
	metrics   MetricsRecorder
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
// A nil logger discards output and a nil metrics recorder is a no-op.
func NewEffectExecutor(
	posts secondary.PostRepository,
	analytics secondary.AnalyticsSink,
	digest primary.DigestService,
	retry RetryPolicy,
	logger *slog.Logger,
	metrics MetricsRecorder,
) *DefaultEffectExecutor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DefaultEffectExecutor{
		posts:     posts,
		analytics: analytics,
		digest:    digest,
		retry:     retry,
		logger:    logger,
		metrics:   metrics,
	}
}

// Execute processes a slice of effects in order, continuing past failures.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) *EffectReport {
	report := &EffectReport{}
	for _, eff := range effs {
		outcome := e.executeOne(ctx, eff, report)
		outcome.Name = eff.EffectType()

		if outcome.Success {
			e.logger.Info("side effect succeeded", "effect", outcome.Name, "attempts", outcome.Attempts)
		} else {
			e.logger.Warn("side effect failed", "effect", outcome.Name, "attempts", outcome.Attempts, "error", outcome.Message)
		}
		e.metrics.ObserveSideEffect(outcome.Name, outcome.Success)
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect, report *EffectReport) primary.SideEffectOutcome {
	switch typed := eff.(type) {
	case effects.ArchivePostsEffect:
		return e.executeArchive(ctx, typed, report)
	case effects.AnalyticsEffect:
		return e.executeAnalytics(ctx, typed)
	case effects.DigestEffect:
		return e.executeDigest(ctx, typed)
	default:
		return failed(0, fmt.Errorf("unknown effect type: %T", eff))
	}
}

func (e *DefaultEffectExecutor) executeArchive(ctx context.Context, eff effects.ArchivePostsEffect, report *EffectReport) primary.SideEffectOutcome {
	if e.posts == nil {
		return failed(0, fmt.Errorf("no post repository configured"))
	}

	var archived int
	attempts, err := e.retry.Do(ctx, func(ctx context.Context) error {
		n, err := e.posts.ArchiveOlderThan(ctx, eff.OlderThan, eff.At)
		if err != nil {
			return err
		}
		archived = n
		return nil
	})
	if err != nil {
		return failed(attempts, fmt.Errorf("failed to archive posts: %w", err))
	}

	report.ArchivedPosts = archived
	return primary.SideEffectOutcome{
		Success:  true,
		Message:  fmt.Sprintf("archived %d posts", archived),
		Attempts: attempts,
	}
}

func (e *DefaultEffectExecutor) executeAnalytics(ctx context.Context, eff effects.AnalyticsEffect) primary.SideEffectOutcome {
	if e.analytics == nil {
		return failed(0, fmt.Errorf("no analytics sink configured"))
	}

	attempts, err := e.retry.Do(ctx, func(ctx context.Context) error {
		return e.analytics.Record(ctx, eff.EventType, eff.Payload)
	})
	if err != nil {
		return failed(attempts, fmt.Errorf("failed to record %s event: %w", eff.EventType, err))
	}
	return primary.SideEffectOutcome{
		Success:  true,
		Message:  "recorded " + eff.EventType,
		Attempts: attempts,
	}
}

// executeDigest does not retry the whole send; the digest service retries
// each recipient so delivered messages are not sent twice.
func (e *DefaultEffectExecutor) executeDigest(ctx context.Context, eff effects.DigestEffect) primary.SideEffectOutcome {
	if e.digest == nil {
		return failed(0, fmt.Errorf("no digest service configured"))
	}

	digestReport, err := e.digest.SendDigest(ctx, primary.DigestRequest{
		StateCode:  eff.StateCode,
		StateName:  eff.StateName,
		WeekNumber: eff.WeekNumber,
	})
	if err != nil {
		return failed(1, fmt.Errorf("failed to send digest: %w", err))
	}

	if digestReport.FailureCount > 0 {
		return primary.SideEffectOutcome{
			Success: false,
			Message: fmt.Sprintf("digest sent to %d of %d subscribers",
				digestReport.SuccessCount, digestReport.SuccessCount+digestReport.FailureCount),
			Attempts: 1,
		}
	}
	return primary.SideEffectOutcome{
		Success:  true,
		Message:  fmt.Sprintf("digest sent to %d subscribers", digestReport.SuccessCount),
		Attempts: 1,
	}
}

func failed(attempts int, err error) primary.SideEffectOutcome {
	return primary.SideEffectOutcome{Success: false, Message: err.Error(), Attempts: attempts}
}

// Ensure DefaultEffectExecutor implements the interface
var _ EffectExecutor = (*DefaultEffectExecutor)(nil)
