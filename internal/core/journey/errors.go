package journey

import "errors"

// Error taxonomy for the journey state machine. Callers match with errors.Is;
// every layer wraps these with context rather than replacing them.
var (
	// ErrNotFound means a referenced state code does not exist.
	ErrNotFound = errors.New("state not found")

	// ErrInvalidTransition means a status change would break the
	// upcoming -> current -> completed order.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNoCurrentState means zero or several states are current while the
	// journey is in progress. Never auto-corrected.
	ErrNoCurrentState = errors.New("no unique current state")

	// ErrJourneyNotInitialized means no state has ever been made current.
	ErrJourneyNotInitialized = errors.New("journey not initialized")

	// ErrJourneyComplete means every state is completed. Terminal, not a failure.
	ErrJourneyComplete = errors.New("journey complete")
)

// Error kinds as reported to operators and in HTTP bodies.
const (
	KindNotFound              = "NotFound"
	KindInvalidTransition     = "InvalidTransition"
	KindNoCurrentState        = "NoCurrentState"
	KindJourneyNotInitialized = "JourneyNotInitialized"
	KindJourneyComplete       = "JourneyComplete"
	KindInternal              = "Internal"
)

// KindOf maps an error to its taxonomy name. Unknown errors are Internal.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrJourneyNotInitialized):
		return KindJourneyNotInitialized
	case errors.Is(err, ErrNoCurrentState):
		return KindNoCurrentState
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrJourneyComplete):
		return KindJourneyComplete
	default:
		return KindInternal
	}
}
