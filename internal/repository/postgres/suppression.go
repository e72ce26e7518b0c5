package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/suppression"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM suppressions WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

func (r *SuppressionRepo) Get(ctx context.Context, email string) (*domain.Suppression, error) {
	s := &domain.Suppression{}
	err := r.db.QueryRowContext(ctx, `
		SELECT email, reason, source, COALESCE(original_lead_id,''), COALESCE(notes,''),
		       created_at, updated_at
		FROM suppressions
		WHERE email = $1
	`, email).Scan(&s.Email, &s.Reason, &s.Source, &s.OriginalLeadID, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, suppression.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suppression: %w", err)
	}
	return s, nil
}

// Upsert inserts or updates an entry. The severity guard runs inside the
// conflict clause, so concurrent duplicate webhook deliveries can interleave
// without a stronger reason ever being replaced by a weaker one.
func (r *SuppressionRepo) Upsert(ctx context.Context, s *domain.Suppression) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppressions (email, reason, severity, source, original_lead_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET reason = EXCLUDED.reason,
		    severity = EXCLUDED.severity,
		    source = EXCLUDED.source,
		    notes = COALESCE(EXCLUDED.notes, suppressions.notes),
		    updated_at = NOW()
		WHERE EXCLUDED.severity > suppressions.severity
	`, s.Email, s.Reason, s.Reason.Severity(), s.Source, s.OriginalLeadID, s.Notes)
	if err != nil {
		return fmt.Errorf("upsert suppression: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) List(ctx context.Context, f suppression.ListFilter) ([]domain.Suppression, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if f.Reason != "" {
		where += fmt.Sprintf(" AND reason = $%d", idx)
		args = append(args, f.Reason)
		idx++
	}
	if f.Source != "" {
		where += fmt.Sprintf(" AND source = $%d", idx)
		args = append(args, f.Source)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND email ILIKE $%d", idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suppressions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}
	q := `
		SELECT email, reason, source, COALESCE(original_lead_id,''), COALESCE(notes,''),
		       created_at, updated_at
		FROM suppressions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var s domain.Suppression
		if err := rows.Scan(&s.Email, &s.Reason, &s.Source, &s.OriginalLeadID, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suppressions`).Scan(&n)
	return n, err
}
