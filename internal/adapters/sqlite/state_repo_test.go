package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/brewquest/internal/adapters/sqlite"
	corejourney "github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/secondary"
)

func TestStateRepository_GetCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedJourney(t, db, t0)

	current, err := repo.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent failed: %v", err)
	}
	if current.Code != "AL" {
		t.Errorf("expected AL, got %s", current.Code)
	}
	if !current.StartDate.Equal(t0) {
		t.Errorf("expected start %v, got %v", t0, current.StartDate)
	}
	if !current.CompletionDate.IsZero() {
		t.Errorf("expected no completion date, got %v", current.CompletionDate)
	}
}

func TestStateRepository_GetCurrent_None(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	seedState(t, db, "AL", "Alabama", 1)

	_, err := repo.GetCurrent(context.Background())
	if !errors.Is(err, corejourney.ErrNoCurrentState) {
		t.Errorf("expected ErrNoCurrentState, got %v", err)
	}
}

func TestStateRepository_GetCurrent_Multiple(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	seedCurrentState(t, db, "AL", "Alabama", 1, t0)
	seedCurrentState(t, db, "AK", "Alaska", 2, t0)

	_, err := repo.GetCurrent(context.Background())
	if !errors.Is(err, corejourney.ErrNoCurrentState) {
		t.Errorf("expected ErrNoCurrentState for two current states, got %v", err)
	}
}

func TestStateRepository_GetNextUpcoming(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedCurrentState(t, db, "AL", "Alabama", 1, t0)
	seedState(t, db, "AZ", "Arizona", 3)
	seedState(t, db, "AK", "Alaska", 2)

	next, err := repo.GetNextUpcoming(ctx)
	if err != nil {
		t.Fatalf("GetNextUpcoming failed: %v", err)
	}
	if next.Code != "AK" {
		t.Errorf("expected lowest week AK, got %s", next.Code)
	}
}

func TestStateRepository_GetNextUpcoming_None(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	seedCurrentState(t, db, "WY", "Wyoming", 50, t0)

	_, err := repo.GetNextUpcoming(context.Background())
	if !errors.Is(err, corejourney.ErrJourneyComplete) {
		t.Errorf("expected ErrJourneyComplete, got %v", err)
	}
}

func TestStateRepository_GetByCode_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)

	_, err := repo.GetByCode(context.Background(), "ZZ")
	if !errors.Is(err, corejourney.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStateRepository_MarkCompleted(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedJourney(t, db, t0)

	done := t0.AddDate(0, 0, 7)
	if err := repo.MarkCompleted(ctx, "AL", done); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	state, err := repo.GetByCode(ctx, "AL")
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if state.Status != "completed" {
		t.Errorf("expected completed, got %s", state.Status)
	}
	if !state.CompletionDate.Equal(done) {
		t.Errorf("expected completion %v, got %v", done, state.CompletionDate)
	}
	if !state.StartDate.Equal(t0) {
		t.Errorf("expected start date to be kept, got %v", state.StartDate)
	}
}

func TestStateRepository_GuardedTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedJourney(t, db, t0)
	seedCompletedState(t, db, "AR", "Arkansas", 4, t0.AddDate(0, 0, -14), t0.AddDate(0, 0, -7))

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"complete upcoming", func() error { return repo.MarkCompleted(ctx, "AK", t0) }, corejourney.ErrInvalidTransition},
		{"complete missing", func() error { return repo.MarkCompleted(ctx, "ZZ", t0) }, corejourney.ErrNotFound},
		{"current on current", func() error { return repo.MarkCurrent(ctx, "AL", t0) }, corejourney.ErrInvalidTransition},
		{"current on completed", func() error { return repo.MarkCurrent(ctx, "AR", t0) }, corejourney.ErrInvalidTransition},
		{"restore upcoming", func() error { return repo.RestoreCurrent(ctx, "AK", t0) }, corejourney.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStateRepository_RestoreCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedJourney(t, db, t0)

	if err := repo.MarkCompleted(ctx, "AL", t0.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if err := repo.RestoreCurrent(ctx, "AL", t0); err != nil {
		t.Fatalf("RestoreCurrent failed: %v", err)
	}

	state, err := repo.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent failed: %v", err)
	}
	if state.Code != "AL" || !state.StartDate.Equal(t0) || !state.CompletionDate.IsZero() {
		t.Errorf("unexpected restored state: %+v", state)
	}
}

func TestStateRepository_Advance(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedJourney(t, db, t0)

	at := t0.AddDate(0, 0, 7)
	if err := repo.Advance(ctx, "AL", "AK", at); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	current, err := repo.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent failed: %v", err)
	}
	if current.Code != "AK" || !current.StartDate.Equal(at) {
		t.Errorf("unexpected current: %+v", current)
	}

	al, _ := repo.GetByCode(ctx, "AL")
	if al.Status != "completed" || !al.CompletionDate.Equal(at) {
		t.Errorf("unexpected AL: %+v", al)
	}
}

func TestStateRepository_Advance_RollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedCurrentState(t, db, "AL", "Alabama", 1, t0)
	seedCompletedState(t, db, "AK", "Alaska", 2, t0.AddDate(0, 0, -7), t0)

	// AK is not upcoming, so the second write fails and the first must not stick.
	err := repo.Advance(ctx, "AL", "AK", t0.AddDate(0, 0, 7))
	if !errors.Is(err, corejourney.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	al, err := repo.GetByCode(ctx, "AL")
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if al.Status != "current" {
		t.Errorf("expected AL to remain current after rollback, got %s", al.Status)
	}
}

func TestStateRepository_Advance_Final(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()
	seedCurrentState(t, db, "WY", "Wyoming", 50, t0)

	if err := repo.Advance(ctx, "WY", "", t0.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts["completed"] != 1 || counts["current"] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestStateRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStateRepository(db)
	ctx := context.Background()

	for _, s := range []*secondary.StateRecord{
		{Code: "AK", Name: "Alaska", Capital: "Juneau", WeekNumber: 2, Status: "upcoming"},
		{Code: "AL", Name: "Alabama", Region: "South", WeekNumber: 1, Status: "upcoming"},
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := repo.Create(ctx, &secondary.StateRecord{Code: "AZ", Name: "Arizona", WeekNumber: 1, Status: "upcoming"}); err == nil {
		t.Error("expected duplicate week to be rejected")
	}
	if err := repo.Create(ctx, &secondary.StateRecord{Code: "CA", Name: "California", WeekNumber: 3}); err == nil {
		t.Error("expected missing status to be rejected")
	}

	all, err := repo.ListByStatus(ctx, "")
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(all) != 2 || all[0].Code != "AL" || all[1].Code != "AK" {
		t.Fatalf("expected [AL AK] ordered by week, got %v", all)
	}
	if all[0].Region != "South" || all[1].Capital != "Juneau" {
		t.Errorf("optional columns not round-tripped: %+v %+v", all[0], all[1])
	}

	current, err := repo.ListByStatus(ctx, "current")
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(current) != 0 {
		t.Errorf("expected no current states, got %d", len(current))
	}
}
