// Package worker runs the background loops of the engine: the send worker
// pool that drains the queue through the mail transport, the recovery worker
// that reclaims stuck items, and the Redis-backed send rate limiter.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
	"github.com/hirespeedy/outreach-engine/internal/transport"
)

// Queue is the slice of the queue repository the pool needs.
type Queue interface {
	Claim(ctx context.Context, workerID string, limit int) ([]domain.ClaimedItem, error)
	Complete(ctx context.Context, itemID string) error
	Fail(ctx context.Context, itemID, errMsg string, maxRetries int, backoff time.Duration) (bool, error)
	Cancel(ctx context.Context, itemID, reason string) error
}

// SuppressionChecker is the pre-send compliance gate.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}

// MessageMarker applies send-side message transitions.
type MessageMarker interface {
	MarkSent(ctx context.Context, id, providerMessageID string) (*domain.Message, error)
	Transition(ctx context.Context, id string, to domain.MessageStatus) (*domain.Message, error)
}

// StatCounter bumps campaign aggregate counters.
type StatCounter interface {
	Increment(ctx context.Context, campaignID, counter string) error
}

// Limiter gates sends. Allow reports whether n sends may proceed now and, if
// not, how long to wait.
type Limiter interface {
	Allow(ctx context.Context, n int) (allowed bool, wait time.Duration, err error)
}

// PoolOptions tunes the send worker pool.
type PoolOptions struct {
	Workers      int
	BatchSize    int
	PollInterval time.Duration
	SendTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// SendWorkerPool drains the send queue concurrently. Each worker claims a
// batch atomically, re-checks suppression per item immediately before the
// transport call, and records the result.
type SendWorkerPool struct {
	queue    Queue
	suppress SuppressionChecker
	messages MessageMarker
	stats    StatCounter
	sender   transport.Transport
	limiter  Limiter // optional

	workerID string
	opts     PoolOptions

	totalSent    int64
	totalFailed  int64
	totalSkipped int64

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewSendWorkerPool wires a pool. limiter may be nil to send unthrottled.
func NewSendWorkerPool(queue Queue, suppress SuppressionChecker, messages MessageMarker, stats StatCounter, sender transport.Transport, limiter Limiter, opts PoolOptions) *SendWorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Minute
	}
	return &SendWorkerPool{
		queue:    queue,
		suppress: suppress,
		messages: messages,
		stats:    stats,
		sender:   sender,
		limiter:  limiter,
		workerID: fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		opts:     opts,
	}
}

// Start launches the workers. Idempotent while running.
func (p *SendWorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	logger.Info("[SendWorker] Starting pool", "worker_id", p.workerID,
		"workers", p.opts.Workers, "batch_size", p.opts.BatchSize)

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop cancels the workers and waits for in-flight sends to finish.
func (p *SendWorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logger.Info("[SendWorker] Stopped",
		"sent", atomic.LoadInt64(&p.totalSent),
		"failed", atomic.LoadInt64(&p.totalFailed),
		"skipped", atomic.LoadInt64(&p.totalSkipped))
}

// Stats returns pool counters.
func (p *SendWorkerPool) Stats() map[string]int64 {
	return map[string]int64{
		"sent":    atomic.LoadInt64(&p.totalSent),
		"failed":  atomic.LoadInt64(&p.totalFailed),
		"skipped": atomic.LoadInt64(&p.totalSkipped),
	}
}

// ProcessOnce claims and processes a single batch. Used by the manual
// queue-processing trigger; the background workers run the same path.
func (p *SendWorkerPool) ProcessOnce(ctx context.Context) (int, error) {
	items, err := p.queue.Claim(ctx, p.workerID, p.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		p.processItem(ctx, item)
	}
	return len(items), nil
}

func (p *SendWorkerPool) worker(ctx context.Context, num int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		items, err := p.queue.Claim(ctx, p.workerID, p.opts.BatchSize)
		if err != nil {
			logger.Error("[SendWorker] Claim failed", "worker", num, "error", err.Error())
			sleep(ctx, time.Second)
			continue
		}
		if len(items) == 0 {
			sleep(ctx, p.opts.PollInterval)
			continue
		}
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			p.processItem(ctx, item)
		}
	}
}

func (p *SendWorkerPool) processItem(ctx context.Context, item domain.ClaimedItem) {
	// The message may have been cancelled between enqueue and claim.
	if item.MessageStatus != domain.MessageScheduled {
		atomic.AddInt64(&p.totalSkipped, 1)
		if err := p.queue.Cancel(ctx, item.QueueItemID, fmt.Sprintf("message no longer sendable (status %s)", item.MessageStatus)); err != nil {
			logger.Error("[SendWorker] Cancel failed", "item", item.QueueItemID, "error", err.Error())
		}
		return
	}

	// Pre-send compliance gate. Addresses can be suppressed between enqueue
	// and claim; a hit here is expected and handled quietly. A suppressed
	// address must never reach the transport.
	suppressed, err := p.suppress.IsSuppressed(ctx, item.Email)
	if err != nil {
		p.fail(ctx, item, fmt.Errorf("suppression check: %w", err))
		return
	}
	if suppressed {
		atomic.AddInt64(&p.totalSkipped, 1)
		logger.Audit("send_blocked_suppressed", "lead_id", item.LeadID, "email", item.Email, "message_id", item.MessageID)
		if err := p.queue.Cancel(ctx, item.QueueItemID, "recipient suppressed"); err != nil {
			logger.Error("[SendWorker] Cancel failed", "item", item.QueueItemID, "error", err.Error())
		}
		if _, err := p.messages.Transition(ctx, item.MessageID, domain.MessageCancelled); err != nil {
			logger.Error("[SendWorker] Message cancel failed", "message_id", item.MessageID, "error", err.Error())
		}
		return
	}

	if !p.waitForLimiter(ctx) {
		// Shutdown while throttled; the recovery worker requeues the item.
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.opts.SendTimeout)
	providerID, err := p.sender.Send(sendCtx, transport.OutboundMessage{
		To:       item.Email,
		ToName:   item.ContactName,
		Subject:  item.Subject,
		BodyText: item.Body,
	})
	cancel()
	if err != nil {
		p.fail(ctx, item, err)
		return
	}

	if _, err := p.messages.MarkSent(ctx, item.MessageID, providerID); err != nil {
		logger.Error("[SendWorker] MarkSent failed", "message_id", item.MessageID, "error", err.Error())
	}
	if err := p.queue.Complete(ctx, item.QueueItemID); err != nil {
		logger.Error("[SendWorker] Complete failed", "item", item.QueueItemID, "error", err.Error())
	}
	if err := p.stats.Increment(ctx, item.CampaignID, "sent"); err != nil {
		logger.Error("[SendWorker] Stat increment failed", "campaign_id", item.CampaignID, "error", err.Error())
	}
	atomic.AddInt64(&p.totalSent, 1)
	logger.Debug("[SendWorker] Sent", "message_id", item.MessageID, "provider_message_id", providerID)
}

func (p *SendWorkerPool) fail(ctx context.Context, item domain.ClaimedItem, sendErr error) {
	atomic.AddInt64(&p.totalFailed, 1)
	final, err := p.queue.Fail(ctx, item.QueueItemID, sendErr.Error(), p.opts.MaxRetries, p.opts.RetryBackoff)
	if err != nil {
		logger.Error("[SendWorker] Fail record failed", "item", item.QueueItemID, "error", err.Error())
		return
	}
	if final {
		logger.Warn("[SendWorker] Retries exhausted", "item", item.QueueItemID, "message_id", item.MessageID, "error", sendErr.Error())
		if _, err := p.messages.Transition(ctx, item.MessageID, domain.MessageFailed); err != nil {
			logger.Error("[SendWorker] Message fail transition failed", "message_id", item.MessageID, "error", err.Error())
		}
		return
	}
	logger.Warn("[SendWorker] Send failed, will retry", "item", item.QueueItemID, "retry", item.RetryCount+1, "error", sendErr.Error())
}

// waitForLimiter blocks until the limiter admits one send. Returns false only
// on context cancellation.
func (p *SendWorkerPool) waitForLimiter(ctx context.Context) bool {
	if p.limiter == nil {
		return true
	}
	for {
		allowed, wait, err := p.limiter.Allow(ctx, 1)
		if err != nil {
			logger.Warn("[SendWorker] Rate limiter unavailable, proceeding", "error", err.Error())
			return true
		}
		if allowed {
			return true
		}
		if wait <= 0 {
			wait = time.Second
		}
		if !sleep(ctx, wait) {
			return false
		}
	}
}

// sleep waits for d or until ctx is done. Returns false when cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
