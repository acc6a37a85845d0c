package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kdimtricp/dashforensics/internal/models"
)

type PlateRepo struct {
	db *DB
}

func NewPlateRepo(db *DB) *PlateRepo {
	return &PlateRepo{db: db}
}

func (r *PlateRepo) Upsert(ctx context.Context, rec *models.PlateResult) error {
	query := `
		INSERT INTO license_results (filename, plate_text, confidence, detected_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT(filename) DO UPDATE SET
			plate_text = excluded.plate_text,
			confidence = excluded.confidence,
			detected_at = excluded.detected_at`

	_, err := r.db.conn.ExecContext(ctx, query,
		rec.Filename, rec.PlateText, rec.Confidence, rec.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert plate result: %w", err)
	}
	return nil
}

func (r *PlateRepo) GetByFilename(ctx context.Context, filename string) (*models.PlateResult, error) {
	query := `
		SELECT filename, plate_text, confidence, detected_at
		FROM license_results WHERE filename = $1`

	rec := &models.PlateResult{}
	err := r.db.conn.QueryRowContext(ctx, query, filename).Scan(
		&rec.Filename, &rec.PlateText, &rec.Confidence, &rec.DetectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plate result: %w", err)
	}
	return rec, nil
}
