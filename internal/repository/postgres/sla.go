package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/sla"
)

// DeadlineRepo implements sla.Repository against PostgreSQL.
type DeadlineRepo struct{ db *sql.DB }

// NewDeadlineRepo creates a Postgres-backed deadline repository.
func NewDeadlineRepo(db *sql.DB) *DeadlineRepo { return &DeadlineRepo{db: db} }

const deadlineColumns = `id, entity_type, entity_id, rule_id, phase,
	       COALESCE(responsible_party,''), deadline_at, warning_at, status,
	       completed_at, created_at`

func scanDeadline(row *sql.Row) (*domain.Deadline, error) {
	d := &domain.Deadline{}
	err := row.Scan(
		&d.ID, &d.EntityType, &d.EntityID, &d.RuleID, &d.Phase,
		&d.ResponsibleParty, &d.DeadlineAt, &d.WarningAt, &d.Status,
		&d.CompletedAt, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sla.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan deadline: %w", err)
	}
	return d, nil
}

func (r *DeadlineRepo) Get(ctx context.Context, id string) (*domain.Deadline, error) {
	return scanDeadline(r.db.QueryRowContext(ctx,
		`SELECT `+deadlineColumns+` FROM sla_deadlines WHERE id = $1`, id))
}

func (r *DeadlineRepo) FindOpen(ctx context.Context, entityType, entityID, phase string) (*domain.Deadline, error) {
	return scanDeadline(r.db.QueryRowContext(ctx, `
		SELECT `+deadlineColumns+`
		FROM sla_deadlines
		WHERE entity_type = $1 AND entity_id = $2 AND phase = $3
		  AND status IN ('active', 'warning')
	`, entityType, entityID, phase))
}

func (r *DeadlineRepo) ListDue(ctx context.Context, now time.Time) ([]*domain.Deadline, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deadlineColumns+`
		FROM sla_deadlines
		WHERE status IN ('active', 'warning') AND warning_at <= $1
		ORDER BY deadline_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list due deadlines: %w", err)
	}
	return collectDeadlines(rows)
}

func (r *DeadlineRepo) ListForEntity(ctx context.Context, entityType, entityID string) ([]*domain.Deadline, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deadlineColumns+`
		FROM sla_deadlines
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	return collectDeadlines(rows)
}

func collectDeadlines(rows *sql.Rows) ([]*domain.Deadline, error) {
	defer rows.Close()
	var out []*domain.Deadline
	for rows.Next() {
		d := &domain.Deadline{}
		if err := rows.Scan(
			&d.ID, &d.EntityType, &d.EntityID, &d.RuleID, &d.Phase,
			&d.ResponsibleParty, &d.DeadlineAt, &d.WarningAt, &d.Status,
			&d.CompletedAt, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan deadline: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DeadlineRepo) Create(ctx context.Context, d *domain.Deadline) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sla_deadlines
			(id, entity_type, entity_id, rule_id, phase, responsible_party,
			 deadline_at, warning_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8, $9, NOW())
	`, d.ID, d.EntityType, d.EntityID, d.RuleID, d.Phase, d.ResponsibleParty,
		d.DeadlineAt, d.WarningAt, d.Status)
	if err != nil {
		return fmt.Errorf("create deadline: %w", err)
	}
	return nil
}

func (r *DeadlineRepo) Update(ctx context.Context, d *domain.Deadline) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sla_deadlines
		SET status = $2, completed_at = $3, responsible_party = NULLIF($4,'')
		WHERE id = $1
	`, d.ID, d.Status, d.CompletedAt, d.ResponsibleParty)
	if err != nil {
		return fmt.Errorf("update deadline: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sla.ErrNotFound
	}
	return nil
}
