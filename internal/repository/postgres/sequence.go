package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/sequence"
)

// SequenceRepo implements sequence.Repository against PostgreSQL.
type SequenceRepo struct{ db *sql.DB }

// NewSequenceRepo creates a Postgres-backed sequence repository.
func NewSequenceRepo(db *sql.DB) *SequenceRepo { return &SequenceRepo{db: db} }

const sequenceColumns = `id, lead_id, campaign_id, current_step, status,
	       COALESCE(paused_reason,''), paused_at, completed_at, created_at, updated_at`

func scanSequence(row *sql.Row) (*domain.Sequence, error) {
	s := &domain.Sequence{}
	err := row.Scan(
		&s.ID, &s.LeadID, &s.CampaignID, &s.CurrentStep, &s.Status,
		&s.PausedReason, &s.PausedAt, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sequence: %w", err)
	}
	return s, nil
}

func (r *SequenceRepo) Get(ctx context.Context, id string) (*domain.Sequence, error) {
	return scanSequence(r.db.QueryRowContext(ctx,
		`SELECT `+sequenceColumns+` FROM sequences WHERE id = $1`, id))
}

func (r *SequenceRepo) FindOpen(ctx context.Context, leadID, campaignID string) (*domain.Sequence, error) {
	return scanSequence(r.db.QueryRowContext(ctx, `
		SELECT `+sequenceColumns+`
		FROM sequences
		WHERE lead_id = $1 AND campaign_id = $2 AND status != 'completed'
	`, leadID, campaignID))
}

func (r *SequenceRepo) ActiveForLead(ctx context.Context, leadID string) ([]domain.Sequence, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sequenceColumns+`
		FROM sequences
		WHERE lead_id = $1 AND status = 'active'
		ORDER BY created_at
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("active sequences: %w", err)
	}
	defer rows.Close()

	var out []domain.Sequence
	for rows.Next() {
		var s domain.Sequence
		if err := rows.Scan(
			&s.ID, &s.LeadID, &s.CampaignID, &s.CurrentStep, &s.Status,
			&s.PausedReason, &s.PausedAt, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a new sequence. A partial unique index on
// (lead_id, campaign_id) WHERE status != 'completed' backs the one-open-
// sequence rule at the storage layer; a conflict surfaces as ErrAlreadyActive.
func (r *SequenceRepo) Create(ctx context.Context, s *domain.Sequence) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sequences (id, lead_id, campaign_id, current_step, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT DO NOTHING
	`, s.ID, s.LeadID, s.CampaignID, s.CurrentStep, s.Status)
	if err != nil {
		return fmt.Errorf("create sequence: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sequence.ErrAlreadyActive
	}
	return nil
}

func (r *SequenceRepo) Update(ctx context.Context, s *domain.Sequence) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sequences
		SET current_step = $2, status = $3, paused_reason = NULLIF($4,''),
		    paused_at = $5, completed_at = $6, updated_at = NOW()
		WHERE id = $1
	`, s.ID, s.CurrentStep, s.Status, s.PausedReason, s.PausedAt, s.CompletedAt)
	if err != nil {
		return fmt.Errorf("update sequence: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sequence.ErrNotFound
	}
	return nil
}
