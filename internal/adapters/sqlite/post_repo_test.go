package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/brewquest/internal/adapters/sqlite"
	"github.com/example/brewquest/internal/ports/secondary"
)

func TestPostRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewPostRepository(db)
	ctx := context.Background()
	seedJourney(t, db, t0)

	posts := []*secondary.PostRecord{
		{ID: "POST-001", StateCode: "AL", Platform: "instagram", Content: "old", Status: "posted", CreatedAt: t0.AddDate(0, 0, -20)},
		{ID: "POST-002", StateCode: "AL", Platform: "x", Content: "new", Status: "posted", CreatedAt: t0.AddDate(0, 0, -1)},
		{ID: "POST-003", Platform: "instagram", Content: "teaser", CreatedAt: t0},
	}
	for _, p := range posts {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := repo.List(ctx, secondary.PostFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(all))
	}
	if all[0].ID != "POST-003" {
		t.Errorf("expected newest first, got %s", all[0].ID)
	}
	if all[0].Status != "scheduled" {
		t.Errorf("expected default status scheduled, got %s", all[0].Status)
	}
	if all[0].StateCode != "" {
		t.Errorf("expected no state code, got %s", all[0].StateCode)
	}

	byState, err := repo.List(ctx, secondary.PostFilters{StateCode: "AL", Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byState) != 1 || byState[0].ID != "POST-002" {
		t.Errorf("unexpected filtered posts: %v", byState)
	}
}

func TestPostRepository_Create_UnknownState(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewPostRepository(db)

	err := repo.Create(context.Background(), &secondary.PostRecord{ID: "POST-001", StateCode: "ZZ", Platform: "x", Content: "c", CreatedAt: t0})
	if err == nil {
		t.Error("expected foreign key violation for unknown state")
	}
}

func TestPostRepository_ArchiveOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewPostRepository(db)
	ctx := context.Background()

	for _, p := range []*secondary.PostRecord{
		{ID: "POST-001", Platform: "instagram", Content: "a", Status: "posted", CreatedAt: t0.AddDate(0, 0, -20)},
		{ID: "POST-002", Platform: "instagram", Content: "b", Status: "scheduled", CreatedAt: t0.AddDate(0, 0, -15)},
		{ID: "POST-003", Platform: "instagram", Content: "c", Status: "posted", CreatedAt: t0.AddDate(0, 0, -2)},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	cutoff := t0.AddDate(0, 0, -14)
	n, err := repo.ArchiveOlderThan(ctx, cutoff, t0)
	if err != nil {
		t.Fatalf("ArchiveOlderThan failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 archived, got %d", n)
	}

	// Idempotent for the same cutoff.
	n, err = repo.ArchiveOlderThan(ctx, cutoff, t0)
	if err != nil {
		t.Fatalf("second ArchiveOlderThan failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 archived on second run, got %d", n)
	}

	archived, err := repo.List(ctx, secondary.PostFilters{Status: "archived"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("expected 2 archived posts, got %d", len(archived))
	}
	for _, p := range archived {
		if !p.ArchivedAt.Equal(t0) {
			t.Errorf("post %s archived_at = %v, want %v", p.ID, p.ArchivedAt, t0)
		}
	}
}
