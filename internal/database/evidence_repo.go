package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kdimtricp/dashforensics/internal/models"
)

// EvidenceRepo persists the uploads table. Placeholders use $N, which both
// the pgx and sqlite3 drivers accept.
type EvidenceRepo struct {
	db *DB
}

func NewEvidenceRepo(db *DB) *EvidenceRepo {
	return &EvidenceRepo{db: db}
}

func (r *EvidenceRepo) Insert(ctx context.Context, ev *models.Evidence) error {
	query := `
		INSERT INTO uploads (filename, original_name, size, uploaded_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.conn.ExecContext(ctx, query,
		ev.Filename, ev.OriginalName, ev.Size, ev.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}
	return nil
}

func (r *EvidenceRepo) GetByFilename(ctx context.Context, filename string) (*models.Evidence, error) {
	query := `
		SELECT filename, original_name, size, uploaded_at
		FROM uploads WHERE filename = $1`

	ev := &models.Evidence{}
	err := r.db.conn.QueryRowContext(ctx, query, filename).Scan(
		&ev.Filename, &ev.OriginalName, &ev.Size, &ev.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload record: %w", err)
	}
	return ev, nil
}

// List returns all uploads, most recent first.
func (r *EvidenceRepo) List(ctx context.Context) ([]models.Evidence, error) {
	query := `
		SELECT filename, original_name, size, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC`

	rows, err := r.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var evidence []models.Evidence
	for rows.Next() {
		var ev models.Evidence
		if err := rows.Scan(&ev.Filename, &ev.OriginalName, &ev.Size, &ev.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}
		evidence = append(evidence, ev)
	}
	return evidence, rows.Err()
}

// Delete removes the upload row and every derived record for the filename
// in one transaction. Rows for other filenames are untouched.
func (r *EvidenceRepo) Delete(ctx context.Context, filename string) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []string{"uploads", "tamper_records", "tampers", "timestamps", "license_results"}
	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s WHERE filename = $1", table)
		if _, err := tx.ExecContext(ctx, query, filename); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
