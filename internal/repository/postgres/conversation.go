package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// ConversationRepo implements conversation persistence against PostgreSQL.
type ConversationRepo struct{ db *sql.DB }

// NewConversationRepo creates a Postgres-backed conversation repository.
func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{db: db} }

// FindOrCreate returns the lead's conversation for the campaign, creating it
// lazily on the first inbound reply. The upsert keeps concurrent creates
// collapsing onto one row.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, leadID, campaignID string) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, lead_id, campaign_id, status, last_message_at, created_at)
		VALUES ($1, $2, $3, 'active', NOW(), NOW())
		ON CONFLICT (lead_id, campaign_id) DO UPDATE SET lead_id = EXCLUDED.lead_id
		RETURNING id, lead_id, campaign_id, status, last_message_at, created_at
	`, uuid.New().String(), leadID, campaignID).Scan(
		&c.ID, &c.LeadID, &c.CampaignID, &c.Status, &c.LastMessageAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	return c, nil
}

// Append adds one entry to the conversation log and bumps last_message_at.
func (r *ConversationRepo) Append(ctx context.Context, conversationID string, msg *domain.ConversationMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_messages
			(id, conversation_id, direction, subject, content, classification, created_at)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''), NOW())
	`, msg.ID, conversationID, msg.Direction, msg.Subject, msg.Content, msg.Classification); err != nil {
		return fmt.Errorf("append conversation message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = NOW() WHERE id = $1
	`, conversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return tx.Commit()
}

func (r *ConversationRepo) SetStatus(ctx context.Context, conversationID string, status domain.ConversationStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET status = $2 WHERE id = $1`,
		conversationID, status)
	if err != nil {
		return fmt.Errorf("set conversation status: %w", err)
	}
	return nil
}

// Messages returns the ordered log for a conversation.
func (r *ConversationRepo) Messages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, direction, COALESCE(subject,''), content,
		       COALESCE(classification,''), created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Subject,
			&m.Content, &m.Classification, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
