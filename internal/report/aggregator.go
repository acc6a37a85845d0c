// Package report assembles stored records for the latest surviving
// evidence file into a normalized view for an external renderer.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/models"
)

// FileChecker reports whether a stored filename still exists in storage.
type FileChecker interface {
	Exists(filename string) bool
}

// TimestampRow is one per-frame presentation row expanded from the stored
// JSON detail.
type TimestampRow struct {
	Filename      string
	TimestampText string
	ExtractedAt   time.Time
	Frame         int
	HasFrame      bool
	Confidence    int
	CropImage     string
	FullImage     string
}

// View is the normalized report input. Zero-valued slices and nil records
// form the empty-but-valid view used when no evidence file survives.
type View struct {
	Filename   string
	Upload     *models.Evidence
	Timestamps []TimestampRow
	Tamper     *models.TamperRecord
	Plates     []models.PlateResult
	CaseID     string
	ReportDate time.Time
}

type Aggregator struct {
	evidence   *database.EvidenceRepo
	timestamps *database.TimestampRepo
	integrity  *database.IntegrityRepo
	plates     *database.PlateRepo
	files      FileChecker
}

func NewAggregator(evidence *database.EvidenceRepo, timestamps *database.TimestampRepo, integrity *database.IntegrityRepo, plates *database.PlateRepo, files FileChecker) *Aggregator {
	return &Aggregator{
		evidence:   evidence,
		timestamps: timestamps,
		integrity:  integrity,
		plates:     plates,
		files:      files,
	}
}

// Build scopes the report to the most recently uploaded filename that still
// exists in storage. Stale upload rows pointing at deleted files are
// skipped, not purged.
func (a *Aggregator) Build(ctx context.Context, caseID string) (*View, error) {
	view := &View{CaseID: caseID, ReportDate: time.Now()}

	uploads, err := a.evidence.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}

	for i := range uploads {
		if a.files.Exists(uploads[i].Filename) {
			view.Filename = uploads[i].Filename
			view.Upload = &uploads[i]
			break
		}
	}
	if view.Upload == nil {
		return view, nil
	}

	if err := a.attachTimestamps(ctx, view); err != nil {
		return nil, err
	}

	tamper, err := a.integrity.GetVerdict(ctx, view.Filename)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("loading tamper verdict: %w", err)
	default:
		view.Tamper = tamper
	}

	plate, err := a.plates.GetByFilename(ctx, view.Filename)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("loading plate result: %w", err)
	default:
		view.Plates = append(view.Plates, *plate)
	}

	return view, nil
}

// attachTimestamps expands the serialized per-frame detail back into
// individual rows. A record without detail still yields one aggregate row.
func (a *Aggregator) attachTimestamps(ctx context.Context, view *View) error {
	rec, err := a.timestamps.GetByFilename(ctx, view.Filename)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading extraction record: %w", err)
	}

	if len(rec.Observations) == 0 {
		view.Timestamps = append(view.Timestamps, TimestampRow{
			Filename:      rec.Filename,
			TimestampText: rec.TimestampText,
			ExtractedAt:   rec.ExtractedAt,
			Confidence:    int(rec.Confidence),
		})
		return nil
	}

	for _, obs := range rec.Observations {
		text := obs.Text
		if text == "" {
			text = rec.TimestampText
		}
		view.Timestamps = append(view.Timestamps, TimestampRow{
			Filename:      rec.Filename,
			TimestampText: text,
			ExtractedAt:   rec.ExtractedAt,
			Frame:         obs.Frame,
			HasFrame:      true,
			Confidence:    obs.Confidence,
			CropImage:     obs.CropPath,
			FullImage:     obs.FullPath,
		})
	}
	return nil
}
