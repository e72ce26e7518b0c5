package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/sequence"
)

// CampaignRepo implements campaign persistence against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// statColumns whitelists counter names; Increment interpolates the column
// name and must never receive caller-controlled input directly.
var statColumns = map[string]string{
	"sent":             "sent_count",
	"delivered":        "delivered_count",
	"opened":           "opened_count",
	"clicked":          "clicked_count",
	"replied":          "replied_count",
	"positive_replies": "positive_reply_count",
	"bounced":          "bounced_count",
	"complained":       "complained_count",
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(goal,''), COALESCE(tonality,''), max_word_count,
		       forbidden_words, status, COALESCE(paused_reason,''), paused_at,
		       sent_count, delivered_count, opened_count, clicked_count,
		       replied_count, positive_reply_count, bounced_count, complained_count,
		       created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Goal, &c.Tonality, &c.MaxWordCount,
		pq.Array(&c.ForbiddenWords), &c.Status, &c.PausedReason, &c.PausedAt,
		&c.Stats.Sent, &c.Stats.Delivered, &c.Stats.Opened, &c.Stats.Clicked,
		&c.Stats.Replied, &c.Stats.PositiveReplies, &c.Stats.Bounced, &c.Stats.Complained,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) SetStatus(ctx context.Context, id string, status domain.CampaignStatus, pausedReason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $2,
		    paused_reason = NULLIF($3,''),
		    paused_at = CASE WHEN $2 = 'paused' THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, status, pausedReason)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sequence.ErrCampaignNotFound
	}
	return nil
}

// Increment bumps one aggregate counter. The counter name is resolved through
// the whitelist, never interpolated from input.
func (r *CampaignRepo) Increment(ctx context.Context, campaignID, counter string) error {
	col, ok := statColumns[counter]
	if !ok {
		return fmt.Errorf("unknown campaign counter %q", counter)
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE campaigns SET %s = %s + 1, updated_at = NOW() WHERE id = $1`, col, col),
		campaignID)
	if err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	return nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	if c.Status == "" {
		c.Status = domain.CampaignActive
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, name, goal, tonality, max_word_count, forbidden_words, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, c.ID, c.Name, c.Goal, c.Tonality, c.MaxWordCount, pq.Array(c.ForbiddenWords), c.Status)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}
