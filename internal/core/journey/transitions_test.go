package journey

import (
	"testing"
	"time"
)

func TestApplyStatusTransition(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	current := ApplyStatusTransition(StatusCurrent, now)
	if current.NewStatus != StatusCurrent {
		t.Errorf("NewStatus = %s, want current", current.NewStatus)
	}
	if current.StartDate == nil || !current.StartDate.Equal(now) {
		t.Errorf("StartDate = %v, want %v", current.StartDate, now)
	}
	if current.CompletionDate != nil {
		t.Error("current transition should not set CompletionDate")
	}
	if !current.ClearCompleted {
		t.Error("current transition should clear CompletionDate")
	}

	completed := ApplyStatusTransition(StatusCompleted, now)
	if completed.CompletionDate == nil || !completed.CompletionDate.Equal(now) {
		t.Errorf("CompletionDate = %v, want %v", completed.CompletionDate, now)
	}
	if completed.StartDate != nil {
		t.Error("completed transition should keep the existing StartDate")
	}

	upcoming := ApplyStatusTransition(StatusUpcoming, now)
	if upcoming.StartDate != nil || upcoming.CompletionDate != nil || !upcoming.ClearCompleted {
		t.Errorf("unexpected upcoming transition: %+v", upcoming)
	}
}

func TestInitialStatus(t *testing.T) {
	if InitialStatus() != StatusUpcoming {
		t.Errorf("InitialStatus() = %s, want upcoming", InitialStatus())
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"upcoming", "current", "completed"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", s, err)
		}
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestHasPeriodElapsed(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"same instant", start, false},
		{"one day later", start.Add(24 * time.Hour), false},
		{"one second short", start.Add(TransitionPeriod - time.Second), false},
		{"exactly seven days", start.Add(TransitionPeriod), true},
		{"eight days", start.Add(8 * 24 * time.Hour), true},
		{"clock behind start", start.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPeriodElapsed(start, tt.now, 0); got != tt.want {
				t.Errorf("HasPeriodElapsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayNumber(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"start instant", start, 1},
		{"before start", start.Add(-time.Hour), 1},
		{"23 hours in", start.Add(23 * time.Hour), 1},
		{"second day", start.Add(25 * time.Hour), 2},
		{"seventh day", start.Add(6*24*time.Hour + time.Hour), 7},
		{"late cron run past the week", start.Add(9 * 24 * time.Hour), DaysPerState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayNumber(start, tt.now); got != tt.want {
				t.Errorf("DayNumber() = %d, want %d", got, tt.want)
			}
		})
	}
}
