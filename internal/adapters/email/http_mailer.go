// Package email contains Mailer implementations.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/example/brewquest/internal/ports/secondary"
)

// DefaultBaseURL is the Resend API root.
const DefaultBaseURL = "https://api.resend.com"

// HTTPMailer sends email through a Resend-compatible JSON API.
type HTTPMailer struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// Option configures the HTTP mailer.
type Option func(*HTTPMailer)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *HTTPMailer) { m.httpClient = c }
}

// WithBaseURL points the mailer at another API root.
func WithBaseURL(u string) Option {
	return func(m *HTTPMailer) { m.baseURL = strings.TrimRight(u, "/") }
}

// NewHTTPMailer creates a mailer that sends as from.
func NewHTTPMailer(apiKey, from string, opts ...Option) *HTTPMailer {
	m := &HTTPMailer{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type sendRequest struct {
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
	Tags    []sendTag `json:"tags,omitempty"`
}

type sendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts one message to /emails.
func (m *HTTPMailer) Send(ctx context.Context, msg secondary.EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email: recipient is required")
	}

	req := sendRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	names := make([]string, 0, len(msg.Tags))
	for name := range msg.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.Tags = append(req.Tags, sendTag{Name: name, Value: msg.Tags[name]})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("email: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr sendError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("email: HTTP %d: %s: %s", resp.StatusCode, apiErr.Name, apiErr.Message)
		}
		return fmt.Errorf("email: HTTP %d", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ secondary.Mailer = (*HTTPMailer)(nil)
