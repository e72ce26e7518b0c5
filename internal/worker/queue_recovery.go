package worker

import (
	"context"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
)

const (
	// DefaultRecoveryInterval is how often the recovery worker scans for
	// stuck items.
	DefaultRecoveryInterval = 2 * time.Minute

	// DefaultStaleAge is how long an item may sit in processing before the
	// claiming worker is presumed crashed.
	DefaultStaleAge = 5 * time.Minute
)

// RecoveryQueue is the slice of the queue repository the recovery worker
// needs.
type RecoveryQueue interface {
	RequeueStale(ctx context.Context, staleAge time.Duration, maxRetries int) (int, error)
	FailExhausted(ctx context.Context, staleAge time.Duration, maxRetries int) (int, error)
}

// QueueRecoveryWorker periodically reclaims items stuck in processing. Items
// under the retry bound go back to pending; items at the bound land in failed
// for the operator queue.
type QueueRecoveryWorker struct {
	queue      RecoveryQueue
	interval   time.Duration
	staleAge   time.Duration
	maxRetries int
}

// NewQueueRecoveryWorker creates a recovery worker. Zero durations fall back
// to the defaults.
func NewQueueRecoveryWorker(queue RecoveryQueue, interval, staleAge time.Duration, maxRetries int) *QueueRecoveryWorker {
	if interval <= 0 {
		interval = DefaultRecoveryInterval
	}
	if staleAge <= 0 {
		staleAge = DefaultStaleAge
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &QueueRecoveryWorker{
		queue:      queue,
		interval:   interval,
		staleAge:   staleAge,
		maxRetries: maxRetries,
	}
}

// Start runs the recovery loop until ctx is cancelled.
func (qr *QueueRecoveryWorker) Start(ctx context.Context) {
	logger.Info("[QueueRecovery] Starting",
		"interval", qr.interval.String(), "stale_age", qr.staleAge.String(), "max_retries", qr.maxRetries)

	ticker := time.NewTicker(qr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[QueueRecovery] Stopping")
			return
		case <-ticker.C:
			qr.RecoverOnce(ctx)
		}
	}
}

// RecoverOnce performs one recovery pass: requeue stuck items under the retry
// bound, then fail the rest.
func (qr *QueueRecoveryWorker) RecoverOnce(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if n, err := qr.queue.RequeueStale(scanCtx, qr.staleAge, qr.maxRetries); err != nil {
		logger.Error("[QueueRecovery] Requeue failed", "error", err.Error())
	} else if n > 0 {
		logger.Info("[QueueRecovery] Requeued stuck items", "count", n)
	}

	if n, err := qr.queue.FailExhausted(scanCtx, qr.staleAge, qr.maxRetries); err != nil {
		logger.Error("[QueueRecovery] Fail pass failed", "error", err.Error())
	} else if n > 0 {
		logger.Warn("[QueueRecovery] Items exhausted retries", "count", n)
	}
}
