package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// QueueRepo implements send queue persistence against PostgreSQL. Claiming is
// the only operation in the engine that needs an atomic conditional update;
// FOR UPDATE SKIP LOCKED lets concurrent workers partition the pending set
// without ever claiming the same item twice.
type QueueRepo struct{ db *sql.DB }

// NewQueueRepo creates a Postgres-backed queue repository.
func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

// Enqueue inserts a pending item for a scheduled message. The partial unique
// index on message_id WHERE status NOT IN (terminal states) rejects a second
// open item per message; that conflict is reported as a no-op.
func (r *QueueRepo) Enqueue(ctx context.Context, messageID string, scheduledAt time.Time) (*domain.SendQueueItem, error) {
	item := &domain.SendQueueItem{
		ID:          uuid.New().String(),
		MessageID:   messageID,
		ScheduledAt: scheduledAt,
		Status:      domain.QueuePending,
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO send_queue (id, message_id, scheduled_at, status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', 0, NOW(), NOW())
		ON CONFLICT DO NOTHING
	`, item.ID, item.MessageID, item.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil // open item already exists for this message
	}
	return item, nil
}

// Claim atomically flips up to limit due pending items to processing and
// returns them joined with their message and lead. Items whose lead is
// already suppressed are still returned; the worker re-checks suppression
// immediately before the transport call.
func (r *QueueRepo) Claim(ctx context.Context, workerID string, limit int) ([]domain.ClaimedItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH claimed AS (
			UPDATE send_queue
			SET status = 'processing',
			    worker_id = $1,
			    claimed_at = NOW(),
			    updated_at = NOW()
			WHERE id IN (
				SELECT q.id FROM send_queue q
				WHERE q.status = 'pending'
				  AND q.scheduled_at <= NOW()
				ORDER BY q.scheduled_at ASC
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, message_id, scheduled_at, retry_count
		)
		SELECT c.id, c.message_id, c.scheduled_at, c.retry_count,
		       m.lead_id, m.campaign_id, m.status, m.subject, m.body,
		       l.email, l.contact_name
		FROM claimed c
		JOIN messages m ON m.id = c.message_id
		JOIN leads l ON l.id = m.lead_id
	`, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("claim queue items: %w", err)
	}
	defer rows.Close()

	var items []domain.ClaimedItem
	for rows.Next() {
		var it domain.ClaimedItem
		if err := rows.Scan(
			&it.QueueItemID, &it.MessageID, &it.ScheduledAt, &it.RetryCount,
			&it.LeadID, &it.CampaignID, &it.MessageStatus, &it.Subject, &it.Body,
			&it.Email, &it.ContactName,
		); err != nil {
			return nil, fmt.Errorf("scan claimed item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Complete marks a processing item completed.
func (r *QueueRepo) Complete(ctx context.Context, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE send_queue
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`, itemID)
	if err != nil {
		return fmt.Errorf("complete queue item: %w", err)
	}
	return nil
}

// Fail records a failed attempt. Under the retry bound the item goes back to
// pending with a backoff on scheduled_at; at the bound it lands in failed for
// the operator queue. Returns true when the item went terminal.
func (r *QueueRepo) Fail(ctx context.Context, itemID, errMsg string, maxRetries int, backoff time.Duration) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `
		UPDATE send_queue
		SET retry_count = retry_count + 1,
		    error_message = $2,
		    status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    scheduled_at = CASE WHEN retry_count + 1 >= $3 THEN scheduled_at ELSE NOW() + $4::interval END,
		    worker_id = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING status
	`, itemID, errMsg, maxRetries, backoff.String()).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil // item no longer processing, nothing to record
	}
	if err != nil {
		return false, fmt.Errorf("fail queue item: %w", err)
	}
	return status == "failed", nil
}

// Cancel marks a processing item cancelled. Used when the pre-send compliance
// check rejects a claimed item.
func (r *QueueRepo) Cancel(ctx context.Context, itemID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE send_queue
		SET status = 'cancelled', error_message = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`, itemID, reason)
	if err != nil {
		return fmt.Errorf("cancel queue item: %w", err)
	}
	return nil
}

// CancelPendingForLead cancels every pending item whose message belongs to
// the lead. Items already claimed by a worker are left alone; the worker's
// own pre-send suppression check catches those.
func (r *QueueRepo) CancelPendingForLead(ctx context.Context, leadID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE send_queue q
		SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
		FROM messages m
		WHERE q.message_id = m.id
		  AND m.lead_id = $1
		  AND q.status = 'pending'
	`, leadID)
	if err != nil {
		return 0, fmt.Errorf("cancel pending for lead: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// RequeueStale returns stuck processing items (worker crashed mid-send) to
// pending when under the retry bound.
func (r *QueueRepo) RequeueStale(ctx context.Context, staleAge time.Duration, maxRetries int) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE send_queue
		SET status = 'pending',
		    worker_id = NULL,
		    claimed_at = NULL,
		    retry_count = retry_count + 1,
		    updated_at = NOW()
		WHERE status = 'processing'
		  AND claimed_at < NOW() - $1::interval
		  AND retry_count < $2
	`, staleAge.String(), maxRetries)
	if err != nil {
		return 0, fmt.Errorf("requeue stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// FailExhausted moves stuck items at or past the retry bound to failed.
func (r *QueueRepo) FailExhausted(ctx context.Context, staleAge time.Duration, maxRetries int) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE send_queue
		SET status = 'failed',
		    error_message = COALESCE(error_message, 'retries exhausted'),
		    updated_at = NOW()
		WHERE status = 'processing'
		  AND claimed_at < NOW() - $1::interval
		  AND retry_count >= $2
	`, staleAge.String(), maxRetries)
	if err != nil {
		return 0, fmt.Errorf("fail exhausted: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountByStatus returns queue depth per status for the health endpoint.
func (r *QueueRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM send_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
