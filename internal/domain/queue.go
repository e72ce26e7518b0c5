package domain

import "time"

// QueueItemStatus enumerates the lifecycle of a send queue item.
type QueueItemStatus string

const (
	QueuePending    QueueItemStatus = "pending"
	QueueProcessing QueueItemStatus = "processing"
	QueueCompleted  QueueItemStatus = "completed"
	QueueFailed     QueueItemStatus = "failed"
	QueueCancelled  QueueItemStatus = "cancelled"
)

// Terminal reports whether the queue item reached a final state. A message may
// acquire a new queue item only after its previous one is terminal.
func (s QueueItemStatus) Terminal() bool {
	return s == QueueCompleted || s == QueueFailed || s == QueueCancelled
}

// ClaimedItem is a queue item joined with its message and lead, as handed to
// a send worker by an atomic claim.
type ClaimedItem struct {
	QueueItemID   string
	MessageID     string
	ScheduledAt   time.Time
	RetryCount    int
	LeadID        string
	CampaignID    string
	MessageStatus MessageStatus
	Subject       string
	Body          string
	Email         string
	ContactName   string
}

// SendQueueItem is one unit of work translating an approved message into an
// attempted delivery. Claiming (pending → processing) is the only operation in
// the engine that requires an atomic conditional update.
type SendQueueItem struct {
	ID           string          `json:"id" db:"id"`
	MessageID    string          `json:"message_id" db:"message_id"`
	ScheduledAt  time.Time       `json:"scheduled_at" db:"scheduled_at"`
	Status       QueueItemStatus `json:"status" db:"status"`
	RetryCount   int             `json:"retry_count" db:"retry_count"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
	WorkerID     string          `json:"worker_id,omitempty" db:"worker_id"`
	ClaimedAt    *time.Time      `json:"claimed_at,omitempty" db:"claimed_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
