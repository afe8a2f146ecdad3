package secondary

import "context"

// Mailer defines the secondary port for the transactional email provider.
type Mailer interface {
	// Send delivers one message. A nil error means the provider accepted it.
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single plain-text email.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	Tags    map[string]string
}
