package integrity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/models"
)

// FileLocator resolves a stored filename to its on-disk path.
type FileLocator interface {
	FilePath(filename string) string
	Exists(filename string) bool
}

// Override forces a verdict for selected filenames. It exists for test and
// demo wiring only; production configuration passes nil and the verdict
// stays a pure function of the digests.
type Override interface {
	Verdict(filename string) (models.TamperStatus, bool)
}

// Verifier derives tamper verdicts from baseline and current digests and
// records each run in the audit table.
type Verifier struct {
	repo     *database.IntegrityRepo
	files    FileLocator
	override Override
}

func NewVerifier(repo *database.IntegrityRepo, files FileLocator, override Override) *Verifier {
	return &Verifier{repo: repo, files: files, override: override}
}

// Detail is the full comparison for one filename, used by inspection views.
type Detail struct {
	Filename     string
	BaselineHash string
	CurrentHash  string
	Status       models.TamperStatus
}

// missingHashMarker is stored in Detail.CurrentHash when the evidence file
// is gone from storage.
const missingHashMarker = "file missing"

// Verify computes the verdict for filename and upserts the audit row.
// Unverified when no baseline exists or the file is unavailable, Authentic
// when digests match, Tampered otherwise. A persistence failure on the
// audit row is returned to the caller, not swallowed.
func (v *Verifier) Verify(ctx context.Context, filename string) (models.TamperStatus, error) {
	detail, err := v.Inspect(ctx, filename)
	if err != nil {
		return models.StatusUnverified, err
	}

	rec := &models.TamperRecord{
		Filename:  filename,
		Status:    detail.Status,
		CheckedAt: time.Now(),
	}
	if err := v.repo.UpsertVerdict(ctx, rec); err != nil {
		return detail.Status, fmt.Errorf("recording tamper verdict: %w", err)
	}
	return detail.Status, nil
}

// Inspect computes the same verdict as Verify without writing the audit row.
func (v *Verifier) Inspect(ctx context.Context, filename string) (*Detail, error) {
	detail := &Detail{Filename: filename, Status: models.StatusUnverified}

	baseline, err := v.repo.GetBaseline(ctx, filename)
	switch {
	case errors.Is(err, database.ErrNotFound):
		baseline = ""
	case err != nil:
		return nil, fmt.Errorf("loading baseline: %w", err)
	}
	detail.BaselineHash = baseline

	current, err := ComputeHash(v.files.FilePath(filename))
	switch {
	case errors.Is(err, ErrFileUnavailable):
		log.Printf("[INTEGRITY] %s: %v", filename, err)
		current = missingHashMarker
	case err != nil:
		return nil, err
	}
	detail.CurrentHash = current

	if baseline != "" && current != missingHashMarker {
		if baseline == current {
			detail.Status = models.StatusAuthentic
		} else {
			detail.Status = models.StatusTampered
		}
	}

	if v.override != nil {
		if status, ok := v.override.Verdict(filename); ok {
			detail.Status = status
		}
	}
	return detail, nil
}

// EstablishBaseline records the current digest as the trusted reference on
// first acquisition only. An existing baseline is left alone.
func (v *Verifier) EstablishBaseline(ctx context.Context, filename string) error {
	hash, err := ComputeHash(v.files.FilePath(filename))
	if err != nil {
		return err
	}
	if err := v.repo.InsertBaselineIfAbsent(ctx, filename, hash); err != nil {
		return fmt.Errorf("establishing baseline: %w", err)
	}
	return nil
}

// SetBaseline rebaselines to the current digest, insert or update.
func (v *Verifier) SetBaseline(ctx context.Context, filename string) error {
	hash, err := ComputeHash(v.files.FilePath(filename))
	if err != nil {
		return err
	}
	if err := v.repo.SetBaseline(ctx, filename, hash); err != nil {
		return fmt.Errorf("setting baseline: %w", err)
	}
	return nil
}

// SweepEntry is one file's outcome from a verification sweep.
type SweepEntry struct {
	Filename   string
	UploadedAt time.Time
	Status     models.TamperStatus
}

// Sweep verifies every upload whose file still exists in storage and
// returns the per-file outcomes. Files gone from disk are skipped.
func (v *Verifier) Sweep(ctx context.Context, uploads []models.Evidence) ([]SweepEntry, error) {
	var entries []SweepEntry
	for i := range uploads {
		ev := &uploads[i]
		if !v.files.Exists(ev.Filename) {
			continue
		}
		status, err := v.Verify(ctx, ev.Filename)
		if err != nil {
			return nil, fmt.Errorf("verifying %s: %w", ev.Filename, err)
		}
		entries = append(entries, SweepEntry{
			Filename:   ev.Filename,
			UploadedAt: ev.UploadedAt,
			Status:     status,
		})
	}
	return entries, nil
}
