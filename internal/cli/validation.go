package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/brewquest/internal/core/journey"
)

var stateCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// validateStateCode normalizes a two-letter state code.
// Returns an error with a helpful message for anything else.
func validateStateCode(code string) (string, error) {
	if code == "" {
		return "", nil // Empty is OK, let other validation handle required fields
	}

	upper := strings.ToUpper(strings.TrimSpace(code))
	if stateCodePattern.MatchString(upper) {
		return upper, nil
	}
	return "", fmt.Errorf("invalid state code '%s'. Expected two letters, e.g. AL", code)
}

// validateStatus accepts empty (all) or one of the journey statuses.
func validateStatus(status string) error {
	if status == "" {
		return nil
	}
	if _, err := journey.ParseStatus(status); err != nil {
		return fmt.Errorf("invalid status: %s\nValid statuses: upcoming, current, completed", status)
	}
	return nil
}

// invocationTime parses an RFC3339 --now override, defaulting to the wall clock.
// The result is always UTC.
func invocationTime(raw string, now func() time.Time) (time.Time, error) {
	if raw == "" {
		return now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q, expected RFC3339 such as 2026-03-09T09:00:00Z", raw)
	}
	return t.UTC(), nil
}
