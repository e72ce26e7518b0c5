package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
)

// MessageRepo implements message.Repository against PostgreSQL.
type MessageRepo struct{ db *sql.DB }

// NewMessageRepo creates a Postgres-backed message repository.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageColumns = `id, lead_id, campaign_id, sequence_step, subject, body, status,
	       COALESCE(provider_message_id,''), open_count, click_count,
	       COALESCE(reply_classification,''),
	       sent_at, delivered_at, opened_at, clicked_at, bounced_at,
	       complained_at, replied_at, cancelled_at, failed_at,
	       created_at, updated_at`

func scanMessage(row *sql.Row) (*domain.Message, error) {
	m := &domain.Message{}
	err := row.Scan(
		&m.ID, &m.LeadID, &m.CampaignID, &m.SequenceStep, &m.Subject, &m.Body, &m.Status,
		&m.ProviderMessageID, &m.OpenCount, &m.ClickCount,
		&m.ReplyClassification,
		&m.SentAt, &m.DeliveredAt, &m.OpenedAt, &m.ClickedAt, &m.BouncedAt,
		&m.ComplainedAt, &m.RepliedAt, &m.CancelledAt, &m.FailedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, message.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) Get(ctx context.Context, id string) (*domain.Message, error) {
	return scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (r *MessageRepo) GetByProviderMessageID(ctx context.Context, providerID string) (*domain.Message, error) {
	return scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE provider_message_id = $1`, providerID))
}

func (r *MessageRepo) LatestSentForLead(ctx context.Context, leadID string) (*domain.Message, error) {
	return scanMessage(r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE lead_id = $1 AND sent_at IS NOT NULL
		ORDER BY sent_at DESC
		LIMIT 1
	`, leadID))
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, lead_id, campaign_id, sequence_step, subject, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, m.ID, m.LeadID, m.CampaignID, m.SequenceStep, m.Subject, m.Body, m.Status)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *MessageRepo) Update(ctx context.Context, m *domain.Message) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET subject = $2, body = $3, status = $4,
		    provider_message_id = NULLIF($5,''),
		    open_count = $6, click_count = $7,
		    reply_classification = NULLIF($8,''),
		    sent_at = $9, delivered_at = $10, opened_at = $11, clicked_at = $12,
		    bounced_at = $13, complained_at = $14, replied_at = $15,
		    cancelled_at = $16, failed_at = $17,
		    updated_at = NOW()
		WHERE id = $1
	`, m.ID, m.Subject, m.Body, m.Status,
		m.ProviderMessageID,
		m.OpenCount, m.ClickCount,
		m.ReplyClassification,
		m.SentAt, m.DeliveredAt, m.OpenedAt, m.ClickedAt,
		m.BouncedAt, m.ComplainedAt, m.RepliedAt,
		m.CancelledAt, m.FailedAt)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return message.ErrNotFound
	}
	return nil
}

// CancelPreSendForLead bulk-cancels every message for the lead that has not
// reached the transport yet.
func (r *MessageRepo) CancelPreSendForLead(ctx context.Context, leadID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE messages
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE lead_id = $1
		  AND status IN ('draft', 'pending_review', 'approved', 'scheduled')
		RETURNING id
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("cancel messages: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
