package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/example/brewquest/internal/ports/primary"
)

// PublishAdapter translates CLI operations to PublishService calls.
type PublishAdapter struct {
	service primary.PublishService
	out     io.Writer
}

// NewPublishAdapter creates a new PublishAdapter with the given service.
func NewPublishAdapter(service primary.PublishService, out io.Writer) *PublishAdapter {
	return &PublishAdapter{
		service: service,
		out:     out,
	}
}

// Daily runs the daily publish and prints its summary.
func (a *PublishAdapter) Daily(ctx context.Context, now time.Time) (*primary.PublishResult, error) {
	result, err := a.service.RunDailyPublish(ctx, now)
	if err != nil {
		return nil, err
	}

	where := "(no state)"
	if result.State != nil {
		where = describe(result.State)
	}

	switch result.Outcome {
	case primary.PublishOutcomePublished:
		fmt.Fprintf(a.out, "%s Published day %d of %s\n", okMark(), result.DayNumber, where)
		if result.Review != nil {
			fmt.Fprintf(a.out, "  %s by %s\n", result.Review.BeerName, result.Review.Brewery)
		}
		if result.PostID != "" {
			fmt.Fprintf(a.out, "  Post: %s\n", result.PostID)
		}
	case primary.PublishOutcomeAlreadyPublished:
		fmt.Fprintf(a.out, "Day %d of %s is already published. Nothing to do.\n", result.DayNumber, where)
	case primary.PublishOutcomeMissing:
		fmt.Fprintf(a.out, "%s No review scheduled for day %d of %s\n", failMark(), result.DayNumber, where)
	case primary.PublishOutcomeJourneyComplete:
		fmt.Fprintln(a.out, "Journey complete. Nothing to publish.")
	}
	PrintSideEffects(a.out, result.SideEffects)
	return result, nil
}
