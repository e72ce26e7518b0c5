package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/importer"
)

// ImportJobRepo implements importer.JobRepository against PostgreSQL. The
// per-row error log is stored as a jsonb column.
type ImportJobRepo struct{ db *sql.DB }

// NewImportJobRepo creates a Postgres-backed import job repository.
func NewImportJobRepo(db *sql.DB) *ImportJobRepo { return &ImportJobRepo{db: db} }

func (r *ImportJobRepo) Get(ctx context.Context, id string) (*domain.ImportJob, error) {
	job := &domain.ImportJob{}
	var rowErrors []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, total_rows, processed, successful, failed, duplicates,
		       COALESCE(row_errors, '[]'), COALESCE(error,''),
		       started_at, completed_at, created_at
		FROM import_jobs
		WHERE id = $1
	`, id).Scan(
		&job.ID, &job.Status, &job.TotalRows, &job.Processed, &job.Successful,
		&job.Failed, &job.Duplicates, &rowErrors, &job.Error,
		&job.StartedAt, &job.CompletedAt, &job.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, importer.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import job: %w", err)
	}
	if err := json.Unmarshal(rowErrors, &job.RowErrors); err != nil {
		return nil, fmt.Errorf("decode row errors: %w", err)
	}
	return job, nil
}

func (r *ImportJobRepo) Create(ctx context.Context, job *domain.ImportJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_jobs (id, status, total_rows, created_at)
		VALUES ($1, $2, $3, NOW())
	`, job.ID, job.Status, job.TotalRows)
	if err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

func (r *ImportJobRepo) Update(ctx context.Context, job *domain.ImportJob) error {
	rowErrors, err := json.Marshal(job.RowErrors)
	if err != nil {
		return fmt.Errorf("encode row errors: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET status = $2, processed = $3, successful = $4, failed = $5,
		    duplicates = $6, row_errors = $7, error = NULLIF($8,''),
		    started_at = $9, completed_at = $10
		WHERE id = $1
	`, job.ID, job.Status, job.Processed, job.Successful, job.Failed,
		job.Duplicates, rowErrors, job.Error, job.StartedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("update import job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return importer.ErrJobNotFound
	}
	return nil
}
