package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kdimtricp/dashforensics/internal/models"
)

// TimestampRepo persists aggregated extraction results. The per-frame
// detail rides along as serialized JSON in raw_ocr_results.
type TimestampRepo struct {
	db *DB
}

func NewTimestampRepo(db *DB) *TimestampRepo {
	return &TimestampRepo{db: db}
}

// Upsert replaces the row for the record's filename in a single statement.
// Full replace: a rerun discards the prior run's per-frame detail entirely.
func (r *TimestampRepo) Upsert(ctx context.Context, rec *models.ExtractionRecord) error {
	if rec.Observations == nil {
		rec.Observations = []models.FrameObservation{}
	}

	rawJSON, err := json.Marshal(rec.Observations)
	if err != nil {
		return fmt.Errorf("failed to marshal frame observations: %w", err)
	}

	query := `
		INSERT INTO timestamps (
			filename, timestamp_text, confidence, consistency_score,
			has_drift, frame_count, raw_ocr_results, extracted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(filename) DO UPDATE SET
			timestamp_text = excluded.timestamp_text,
			confidence = excluded.confidence,
			consistency_score = excluded.consistency_score,
			has_drift = excluded.has_drift,
			frame_count = excluded.frame_count,
			raw_ocr_results = excluded.raw_ocr_results,
			extracted_at = excluded.extracted_at`

	_, err = r.db.conn.ExecContext(ctx, query,
		rec.Filename,
		rec.TimestampText,
		rec.Confidence,
		rec.ConsistencyScore,
		rec.HasDrift,
		rec.FrameCount,
		string(rawJSON),
		rec.ExtractedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert extraction record: %w", err)
	}
	return nil
}

func (r *TimestampRepo) GetByFilename(ctx context.Context, filename string) (*models.ExtractionRecord, error) {
	query := `
		SELECT filename, timestamp_text, confidence, consistency_score,
			   has_drift, frame_count, raw_ocr_results, extracted_at
		FROM timestamps WHERE filename = $1`

	rec := &models.ExtractionRecord{}
	var rawJSON string
	err := r.db.conn.QueryRowContext(ctx, query, filename).Scan(
		&rec.Filename,
		&rec.TimestampText,
		&rec.Confidence,
		&rec.ConsistencyScore,
		&rec.HasDrift,
		&rec.FrameCount,
		&rawJSON,
		&rec.ExtractedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction record: %w", err)
	}

	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &rec.Observations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal frame observations: %w", err)
		}
	}
	return rec, nil
}
