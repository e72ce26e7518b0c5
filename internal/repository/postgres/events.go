package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// EventLogRepo implements the append-only campaign event log. The unique
// constraint on provider_event_id is the idempotency barrier for the whole
// ingestion path.
type EventLogRepo struct{ db *sql.DB }

// NewEventLogRepo creates a Postgres-backed event log.
func NewEventLogRepo(db *sql.DB) *EventLogRepo { return &EventLogRepo{db: db} }

// Record appends one event. Returns false when the provider event id was
// already logged; callers must skip all side effects in that case.
func (r *EventLogRepo) Record(ctx context.Context, ev *domain.CampaignEvent) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_events
			(id, provider_event_id, campaign_id, lead_id, message_id, event_type, occurred_at, created_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6, $7, NOW())
		ON CONFLICT (provider_event_id) DO NOTHING
	`, ev.ID, ev.ProviderEventID, ev.CampaignID, ev.LeadID, ev.MessageID, ev.Type, ev.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("record event: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Discard removes a logged event so the provider's redelivery is treated as
// fresh. Called when a dispatch recorded the id but a side effect failed.
func (r *EventLogRepo) Discard(ctx context.Context, providerEventID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM campaign_events WHERE provider_event_id = $1`, providerEventID)
	if err != nil {
		return fmt.Errorf("discard event: %w", err)
	}
	return nil
}

// ComplaintsSince counts complaint events for a campaign in the trailing
// window. Drives the campaign auto-pause rule.
func (r *EventLogRepo) ComplaintsSince(ctx context.Context, campaignID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM campaign_events
		WHERE campaign_id = $1 AND event_type = 'complained' AND occurred_at >= $2
	`, campaignID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return n, nil
}
