package email

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/brewquest/internal/ports/secondary"
)

// LogMailer logs messages instead of sending them. It is used when no
// email API key is configured and keeps a copy of every message.
type LogMailer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []secondary.EmailMessage
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default().
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send records and logs the message.
func (m *LogMailer) Send(ctx context.Context, msg secondary.EmailMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "email not sent (log mailer)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Sent returns the messages received so far.
func (m *LogMailer) Sent() []secondary.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]secondary.EmailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ secondary.Mailer = (*LogMailer)(nil)
