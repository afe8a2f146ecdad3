// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// Triggers recorded on transition runs.
const (
	TriggerCLI       = "cli"
	TriggerHTTP      = "http"
	TriggerScheduler = "scheduler"
)

// TriggerKey is the context key for the invocation trigger.
type TriggerKey struct{}

// WithTrigger returns a context recording what started the invocation.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, TriggerKey{}, trigger)
}

// TriggerFromContext returns the trigger from context, or "cli" if not set.
func TriggerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(TriggerKey{}).(string); ok && v != "" {
		return v
	}
	return TriggerCLI
}
