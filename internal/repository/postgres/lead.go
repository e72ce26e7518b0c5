package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// LeadRepo implements lead persistence against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

const leadColumns = `id, email, contact_name, company_name, COALESCE(company_domain,''),
	       COALESCE(job_title,''), status, is_suppressed, COALESCE(suppression_reason,''),
	       has_replied, COALESCE(reply_sentiment,''), last_reply_at,
	       COALESCE(import_job_id,''), created_at, updated_at`

func (r *LeadRepo) scanLead(row *sql.Row) (*domain.Lead, error) {
	l := &domain.Lead{}
	err := row.Scan(
		&l.ID, &l.Email, &l.ContactName, &l.CompanyName, &l.CompanyDomain,
		&l.JobTitle, &l.Status, &l.IsSuppressed, &l.SuppressionReason,
		&l.HasReplied, &l.ReplySentiment, &l.LastReplyAt,
		&l.ImportJobID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) Get(ctx context.Context, id string) (*domain.Lead, error) {
	return r.scanLead(r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

func (r *LeadRepo) GetByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	return r.scanLead(r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = $1`, email))
}

func (r *LeadRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = domain.LeadNew
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads
			(id, email, contact_name, company_name, company_domain, job_title,
			 status, is_suppressed, import_job_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), NOW(), NOW())
	`, l.ID, l.Email, l.ContactName, l.CompanyName, l.CompanyDomain, l.JobTitle,
		l.Status, l.IsSuppressed, l.ImportJobID)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *LeadRepo) Update(ctx context.Context, l *domain.Lead) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE leads
		SET contact_name = $2, company_name = $3, company_domain = NULLIF($4,''),
		    job_title = NULLIF($5,''), status = $6, is_suppressed = $7,
		    suppression_reason = NULLIF($8,''), has_replied = $9,
		    reply_sentiment = NULLIF($10,''), last_reply_at = $11,
		    updated_at = NOW()
		WHERE id = $1
	`, l.ID, l.ContactName, l.CompanyName, l.CompanyDomain, l.JobTitle,
		l.Status, l.IsSuppressed, l.SuppressionReason, l.HasReplied,
		l.ReplySentiment, l.LastReplyAt)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}
