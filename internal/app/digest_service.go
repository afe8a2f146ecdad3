package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/ports/secondary"
)

// DigestServiceImpl implements the DigestService interface.
type DigestServiceImpl struct {
	subscriberRepo secondary.SubscriberRepository
	mailer         secondary.Mailer
	retry          RetryPolicy
	logger         *slog.Logger
}

// NewDigestService creates a new DigestService with injected dependencies.
func NewDigestService(subscriberRepo secondary.SubscriberRepository, mailer secondary.Mailer, retry RetryPolicy, logger *slog.Logger) *DigestServiceImpl {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DigestServiceImpl{
		subscriberRepo: subscriberRepo,
		mailer:         mailer,
		retry:          retry,
		logger:         logger,
	}
}

// SendDigest emails every active subscriber about a completed state.
// Recipients are sent one at a time; a failed recipient does not stop the rest.
func (s *DigestServiceImpl) SendDigest(ctx context.Context, req primary.DigestRequest) (*primary.DigestReport, error) {
	if req.StateCode == "" {
		return nil, fmt.Errorf("digest requires a state code")
	}

	subscribers, err := s.subscriberRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	report := &primary.DigestReport{}
	for _, sub := range subscribers {
		msg := BuildDigestMessage(req, sub)
		_, err := s.retry.Do(ctx, func(ctx context.Context) error {
			return s.mailer.Send(ctx, msg)
		})
		if err != nil {
			s.logger.Warn("digest delivery failed", "email", sub.Email, "state", req.StateCode, "error", err)
			report.FailureCount++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", sub.Email, err))
			continue
		}
		report.SuccessCount++
	}

	s.logger.Info("digest sent", "state", req.StateCode, "sent", report.SuccessCount, "failed", report.FailureCount)
	return report, nil
}

// BuildDigestMessage renders the weekly wrap-up email for one subscriber.
func BuildDigestMessage(req primary.DigestRequest, sub *secondary.SubscriberRecord) secondary.EmailMessage {
	name := req.StateName
	if name == "" {
		name = req.StateCode
	}

	greeting := "Hi there,"
	if sub.Name != "" {
		greeting = fmt.Sprintf("Hi %s,", sub.Name)
	}

	var body strings.Builder
	fmt.Fprintln(&body, greeting)
	fmt.Fprintln(&body)
	fmt.Fprintf(&body, "Week %d of BrewQuest is in the books: we just wrapped up %s.\n", req.WeekNumber, name)
	fmt.Fprintln(&body, "Seven days, seven beers. Catch up on every review on the site.")
	fmt.Fprintln(&body)
	fmt.Fprintln(&body, "Cheers,")
	fmt.Fprintln(&body, "BrewQuest")

	return secondary.EmailMessage{
		To:      sub.Email,
		Subject: fmt.Sprintf("Week %d wrap-up: %s", req.WeekNumber, name),
		Text:    body.String(),
		Tags: map[string]string{
			"category": "weekly_digest",
			"state":    req.StateCode,
		},
	}
}

// Ensure DigestServiceImpl implements the interface
var _ primary.DigestService = (*DigestServiceImpl)(nil)
