package journey

import (
	"errors"
	"testing"
)

func TestCanMarkCompleted(t *testing.T) {
	tests := []struct {
		name        string
		ctx         StateContext
		wantAllowed bool
		wantKind    error
	}{
		{
			name:        "current state can be completed",
			ctx:         StateContext{Code: "AL", Exists: true, Status: StatusCurrent},
			wantAllowed: true,
		},
		{
			name:        "upcoming state cannot be completed",
			ctx:         StateContext{Code: "AK", Exists: true, Status: StatusUpcoming},
			wantAllowed: false,
			wantKind:    ErrInvalidTransition,
		},
		{
			name:        "completed state cannot be completed again",
			ctx:         StateContext{Code: "AL", Exists: true, Status: StatusCompleted},
			wantAllowed: false,
			wantKind:    ErrInvalidTransition,
		},
		{
			name:        "missing state",
			ctx:         StateContext{Code: "ZZ"},
			wantAllowed: false,
			wantKind:    ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanMarkCompleted(tt.ctx)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanMarkCompleted() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}

			err := result.Error()
			if tt.wantAllowed && err != nil {
				t.Errorf("CanMarkCompleted().Error() = %v, want nil", err)
			}
			if !tt.wantAllowed && !errors.Is(err, tt.wantKind) {
				t.Errorf("CanMarkCompleted().Error() = %v, want %v", err, tt.wantKind)
			}
		})
	}
}

func TestCanMarkCurrent(t *testing.T) {
	tests := []struct {
		name        string
		ctx         StateContext
		wantAllowed bool
		wantKind    error
	}{
		{
			name:        "upcoming state can become current",
			ctx:         StateContext{Code: "AK", Exists: true, Status: StatusUpcoming},
			wantAllowed: true,
		},
		{
			name:        "current state cannot become current again",
			ctx:         StateContext{Code: "AK", Exists: true, Status: StatusCurrent},
			wantAllowed: false,
			wantKind:    ErrInvalidTransition,
		},
		{
			name:        "completed state cannot be reverted",
			ctx:         StateContext{Code: "AK", Exists: true, Status: StatusCompleted},
			wantAllowed: false,
			wantKind:    ErrInvalidTransition,
		},
		{
			name:        "missing state",
			ctx:         StateContext{Code: "ZZ"},
			wantAllowed: false,
			wantKind:    ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanMarkCurrent(tt.ctx)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanMarkCurrent() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && !errors.Is(result.Error(), tt.wantKind) {
				t.Errorf("CanMarkCurrent().Error() = %v, want %v", result.Error(), tt.wantKind)
			}
		})
	}
}

func TestCanRestoreCurrent(t *testing.T) {
	if r := CanRestoreCurrent(StateContext{Code: "AL", Exists: true, Status: StatusCompleted}); !r.Allowed {
		t.Errorf("expected completed state to be restorable, got %q", r.Reason)
	}
	if r := CanRestoreCurrent(StateContext{Code: "AL", Exists: true, Status: StatusUpcoming}); r.Allowed {
		t.Error("expected upcoming state to be refused")
	}
}

func TestCanStartJourney(t *testing.T) {
	tests := []struct {
		name        string
		ctx         StartContext
		wantAllowed bool
		wantKind    error
		wantReason  string
	}{
		{
			name:        "fresh seeded journey",
			ctx:         StartContext{Total: 50, Upcoming: 50, FirstCode: "AL"},
			wantAllowed: true,
		},
		{
			name:        "nothing seeded",
			ctx:         StartContext{},
			wantAllowed: false,
			wantKind:    ErrJourneyNotInitialized,
			wantReason:  "no states seeded. Run: brewquest journey seed",
		},
		{
			name:        "already started",
			ctx:         StartContext{Total: 50, Upcoming: 49},
			wantAllowed: false,
			wantKind:    ErrInvalidTransition,
			wantReason:  "journey already started (49 of 50 states upcoming)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanStartJourney(tt.ctx)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanStartJourney() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("CanStartJourney() Reason = %q, want %q", result.Reason, tt.wantReason)
			}
			if !tt.wantAllowed && !errors.Is(result.Error(), tt.wantKind) {
				t.Errorf("CanStartJourney().Error() = %v, want %v", result.Error(), tt.wantKind)
			}
		})
	}
}

func TestCanSeedJourney(t *testing.T) {
	if r := CanSeedJourney(SeedContext{Existing: 0, Incoming: 50}); !r.Allowed {
		t.Errorf("expected empty store to accept seed, got %q", r.Reason)
	}
	if r := CanSeedJourney(SeedContext{Existing: 50, Incoming: 50}); r.Allowed {
		t.Error("expected seeded store to refuse a second seed")
	}
	r := CanSeedJourney(SeedContext{Existing: 0, Incoming: 0})
	if r.Allowed {
		t.Error("expected empty seed data to be refused")
	}
	if r.Error() == nil || r.Error().Error() != "seed data contains no states" {
		t.Errorf("unexpected error: %v", r.Error())
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNotFound, KindNotFound},
		{CanMarkCurrent(StateContext{Code: "AL", Exists: true, Status: StatusCompleted}).Error(), KindInvalidTransition},
		{ErrNoCurrentState, KindNoCurrentState},
		{ErrJourneyNotInitialized, KindJourneyNotInitialized},
		{ErrJourneyComplete, KindJourneyComplete},
		{errors.New("disk full"), KindInternal},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
