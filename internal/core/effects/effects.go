// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import "time"

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// ArchivePostsEffect archives every non-archived post created before OlderThan.
type ArchivePostsEffect struct {
	OlderThan time.Time
	At        time.Time // Archive timestamp
}

func (e ArchivePostsEffect) EffectType() string { return "archive_posts" }

// AnalyticsEffect appends one event to the analytics log.
type AnalyticsEffect struct {
	EventType string
	Payload   map[string]any
}

func (e AnalyticsEffect) EffectType() string { return "analytics" }

// DigestEffect sends the weekly digest email for a completed state.
type DigestEffect struct {
	StateCode  string
	StateName  string
	WeekNumber int
}

func (e DigestEffect) EffectType() string { return "digest_email" }
