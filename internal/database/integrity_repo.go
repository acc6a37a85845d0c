package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kdimtricp/dashforensics/internal/models"
)

// IntegrityRepo persists baseline hashes (tamper_records) and verdict audit
// rows (tampers). The two tables are deliberately separate: the baseline is
// the trusted reference, the verdict row is recomputed history.
type IntegrityRepo struct {
	db *DB
}

func NewIntegrityRepo(db *DB) *IntegrityRepo {
	return &IntegrityRepo{db: db}
}

// InsertBaselineIfAbsent establishes the baseline on first acquisition of a
// filename. An existing baseline is never overwritten by this path.
func (r *IntegrityRepo) InsertBaselineIfAbsent(ctx context.Context, filename, sha256 string) error {
	query := `
		INSERT INTO tamper_records (filename, sha256)
		VALUES ($1, $2)
		ON CONFLICT(filename) DO NOTHING`

	if _, err := r.db.conn.ExecContext(ctx, query, filename, sha256); err != nil {
		return fmt.Errorf("failed to insert baseline: %w", err)
	}
	return nil
}

// SetBaseline replaces the baseline unconditionally. Used for explicit
// manual rebaselining; the single-statement upsert keeps concurrent
// set/read on the same filename atomic.
func (r *IntegrityRepo) SetBaseline(ctx context.Context, filename, sha256 string) error {
	query := `
		INSERT INTO tamper_records (filename, sha256)
		VALUES ($1, $2)
		ON CONFLICT(filename) DO UPDATE SET sha256 = excluded.sha256`

	if _, err := r.db.conn.ExecContext(ctx, query, filename, sha256); err != nil {
		return fmt.Errorf("failed to set baseline: %w", err)
	}
	return nil
}

func (r *IntegrityRepo) GetBaseline(ctx context.Context, filename string) (string, error) {
	query := `SELECT sha256 FROM tamper_records WHERE filename = $1`

	var sha256 string
	err := r.db.conn.QueryRowContext(ctx, query, filename).Scan(&sha256)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get baseline: %w", err)
	}
	return sha256, nil
}

// UpsertVerdict records the outcome of a verification run. Exactly one live
// row per filename; a rerun replaces it.
func (r *IntegrityRepo) UpsertVerdict(ctx context.Context, rec *models.TamperRecord) error {
	query := `
		INSERT INTO tampers (filename, tamper_status, checked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(filename) DO UPDATE SET
			tamper_status = excluded.tamper_status,
			checked_at = excluded.checked_at`

	_, err := r.db.conn.ExecContext(ctx, query, rec.Filename, string(rec.Status), rec.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert tamper verdict: %w", err)
	}
	return nil
}

func (r *IntegrityRepo) GetVerdict(ctx context.Context, filename string) (*models.TamperRecord, error) {
	query := `SELECT filename, tamper_status, checked_at FROM tampers WHERE filename = $1`

	rec := &models.TamperRecord{}
	var status string
	err := r.db.conn.QueryRowContext(ctx, query, filename).Scan(&rec.Filename, &status, &rec.CheckedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tamper verdict: %w", err)
	}
	rec.Status = models.TamperStatus(status)
	return rec, nil
}
