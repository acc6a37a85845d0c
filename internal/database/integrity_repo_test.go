package database

import (
	"context"
	"testing"
	"time"

	"github.com/kdimtricp/dashforensics/internal/models"
)

func TestIntegrityRepo_InsertBaselineIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrityRepo(db)
	ctx := context.Background()

	if err := repo.InsertBaselineIfAbsent(ctx, "clip.mp4", "hash-one"); err != nil {
		t.Fatalf("Failed to insert baseline: %v", err)
	}

	// Second acquisition must not replace the trusted reference.
	if err := repo.InsertBaselineIfAbsent(ctx, "clip.mp4", "hash-two"); err != nil {
		t.Fatalf("Failed on repeat insert: %v", err)
	}

	got, err := repo.GetBaseline(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Failed to get baseline: %v", err)
	}
	if got != "hash-one" {
		t.Errorf("Expected original baseline hash-one, got %s", got)
	}
}

func TestIntegrityRepo_SetBaseline_Rebaselines(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrityRepo(db)
	ctx := context.Background()

	if err := repo.SetBaseline(ctx, "clip.mp4", "hash-one"); err != nil {
		t.Fatalf("Failed to set baseline: %v", err)
	}
	if err := repo.SetBaseline(ctx, "clip.mp4", "hash-two"); err != nil {
		t.Fatalf("Failed to rebaseline: %v", err)
	}

	got, err := repo.GetBaseline(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Failed to get baseline: %v", err)
	}
	if got != "hash-two" {
		t.Errorf("Expected rebaselined hash-two, got %s", got)
	}
}

func TestIntegrityRepo_UpsertVerdict_SingleLiveRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrityRepo(db)
	ctx := context.Background()

	first := &models.TamperRecord{Filename: "clip.mp4", Status: models.StatusUnverified, CheckedAt: time.Now().Add(-time.Minute)}
	second := &models.TamperRecord{Filename: "clip.mp4", Status: models.StatusTampered, CheckedAt: time.Now()}

	if err := repo.UpsertVerdict(ctx, first); err != nil {
		t.Fatalf("Failed to upsert first verdict: %v", err)
	}
	if err := repo.UpsertVerdict(ctx, second); err != nil {
		t.Fatalf("Failed to upsert second verdict: %v", err)
	}

	got, err := repo.GetVerdict(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Failed to get verdict: %v", err)
	}
	if got.Status != models.StatusTampered {
		t.Errorf("Expected latest verdict Tampered, got %s", got.Status)
	}

	var count int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM tampers WHERE filename = 'clip.mp4'").Scan(&count); err != nil {
		t.Fatalf("Failed to count verdict rows: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one verdict row, got %d", count)
	}
}
