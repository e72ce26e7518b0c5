package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/transport"
)

type mockQueue struct {
	mu      sync.Mutex
	pending []domain.ClaimedItem

	completed []string
	failed    map[string]int
	cancelled map[string]string

	maxRetries int
}

func newMockQueue(items ...domain.ClaimedItem) *mockQueue {
	return &mockQueue{
		pending:   items,
		failed:    make(map[string]int),
		cancelled: make(map[string]string),
	}
}

func (m *mockQueue) Claim(_ context.Context, _ string, limit int) ([]domain.ClaimedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, nil
	}
	n := limit
	if n > len(m.pending) {
		n = len(m.pending)
	}
	claimed := make([]domain.ClaimedItem, n)
	copy(claimed, m.pending[:n])
	m.pending = m.pending[n:]
	return claimed, nil
}

func (m *mockQueue) Complete(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, itemID)
	return nil
}

func (m *mockQueue) Fail(_ context.Context, itemID, _ string, maxRetries int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[itemID]++
	return m.failed[itemID] >= maxRetries, nil
}

func (m *mockQueue) Cancel(_ context.Context, itemID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled[itemID] = reason
	return nil
}

type mockSuppression struct {
	suppressed map[string]bool
}

func (m *mockSuppression) IsSuppressed(_ context.Context, email string) (bool, error) {
	return m.suppressed[email], nil
}

type mockMessages struct {
	mu          sync.Mutex
	sent        map[string]string // message id -> provider id
	transitions map[string]domain.MessageStatus
}

func newMockMessages() *mockMessages {
	return &mockMessages{sent: make(map[string]string), transitions: make(map[string]domain.MessageStatus)}
}

func (m *mockMessages) MarkSent(_ context.Context, id, providerID string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[id] = providerID
	return &domain.Message{ID: id, Status: domain.MessageSent}, nil
}

func (m *mockMessages) Transition(_ context.Context, id string, to domain.MessageStatus) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[id] = to
	return &domain.Message{ID: id, Status: to}, nil
}

type mockStats struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMockStats() *mockStats { return &mockStats{counts: make(map[string]int)} }

func (m *mockStats) Increment(_ context.Context, campaignID, counter string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[campaignID+"/"+counter]++
	return nil
}

type mockTransport struct {
	mu    sync.Mutex
	sends []string // recipient emails
	fail  func(to string) error
}

func (m *mockTransport) Send(_ context.Context, msg transport.OutboundMessage) (string, error) {
	if m.fail != nil {
		if err := m.fail(msg.To); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, msg.To)
	return fmt.Sprintf("prov-%d", len(m.sends)), nil
}

func claimable(i int, email string) domain.ClaimedItem {
	return domain.ClaimedItem{
		QueueItemID:   fmt.Sprintf("q-%d", i),
		MessageID:     fmt.Sprintf("msg-%d", i),
		LeadID:        fmt.Sprintf("lead-%d", i),
		CampaignID:    "camp-1",
		MessageStatus: domain.MessageScheduled,
		Subject:       "Hello",
		Body:          "Hi there",
		Email:         email,
	}
}

func newPool(q *mockQueue, s *mockSuppression, m *mockMessages, st *mockStats, tr *mockTransport, opts PoolOptions) *SendWorkerPool {
	if s == nil {
		s = &mockSuppression{suppressed: map[string]bool{}}
	}
	return NewSendWorkerPool(q, s, m, st, tr, nil, opts)
}

func TestProcessOnce_SendsAndCompletes(t *testing.T) {
	q := newMockQueue(claimable(1, "a@example.com"), claimable(2, "b@example.com"))
	msgs := newMockMessages()
	stats := newMockStats()
	tr := &mockTransport{}
	pool := newPool(q, nil, msgs, stats, tr, PoolOptions{})

	n, err := pool.ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if n != 2 {
		t.Fatalf("processed = %d, want 2", n)
	}
	if len(tr.sends) != 2 {
		t.Fatalf("transport sends = %d, want 2", len(tr.sends))
	}
	if len(q.completed) != 2 {
		t.Errorf("completed = %d, want 2", len(q.completed))
	}
	if msgs.sent["msg-1"] == "" || msgs.sent["msg-2"] == "" {
		t.Error("provider message ids not recorded")
	}
	if stats.counts["camp-1/sent"] != 2 {
		t.Errorf("sent stat = %d, want 2", stats.counts["camp-1/sent"])
	}
}

func TestProcessOnce_SuppressedNeverReachesTransport(t *testing.T) {
	q := newMockQueue(claimable(1, "blocked@example.com"))
	sup := &mockSuppression{suppressed: map[string]bool{"blocked@example.com": true}}
	msgs := newMockMessages()
	tr := &mockTransport{}
	pool := newPool(q, sup, msgs, newMockStats(), tr, PoolOptions{})

	if _, err := pool.ProcessOnce(context.Background()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if len(tr.sends) != 0 {
		t.Fatal("suppressed address reached the transport")
	}
	if q.cancelled["q-1"] == "" {
		t.Error("queue item not cancelled")
	}
	if msgs.transitions["msg-1"] != domain.MessageCancelled {
		t.Errorf("message transition = %s, want cancelled", msgs.transitions["msg-1"])
	}
	if pool.Stats()["skipped"] != 1 {
		t.Errorf("skipped = %d, want 1", pool.Stats()["skipped"])
	}
}

func TestProcessOnce_NonScheduledMessageSkipped(t *testing.T) {
	item := claimable(1, "a@example.com")
	item.MessageStatus = domain.MessageCancelled
	q := newMockQueue(item)
	tr := &mockTransport{}
	pool := newPool(q, nil, newMockMessages(), newMockStats(), tr, PoolOptions{})

	if _, err := pool.ProcessOnce(context.Background()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if len(tr.sends) != 0 {
		t.Error("non-scheduled message was sent")
	}
	if q.cancelled["q-1"] == "" {
		t.Error("queue item not cancelled")
	}
}

func TestProcessOnce_FailureRetriesThenExhausts(t *testing.T) {
	msgs := newMockMessages()
	tr := &mockTransport{fail: func(string) error { return errors.New("smtp 451") }}
	opts := PoolOptions{MaxRetries: 3}

	q := newMockQueue()
	pool := newPool(q, nil, msgs, newMockStats(), tr, opts)

	// Same item claimed three times (requeued by Fail in production).
	for attempt := 1; attempt <= 3; attempt++ {
		q.mu.Lock()
		q.pending = []domain.ClaimedItem{claimable(1, "a@example.com")}
		q.mu.Unlock()
		if _, err := pool.ProcessOnce(context.Background()); err != nil {
			t.Fatalf("attempt %d: %v", attempt, err)
		}
	}

	if q.failed["q-1"] != 3 {
		t.Errorf("fail records = %d, want 3", q.failed["q-1"])
	}
	if msgs.transitions["msg-1"] != domain.MessageFailed {
		t.Errorf("message transition = %s, want failed after exhausting retries", msgs.transitions["msg-1"])
	}
	if pool.Stats()["failed"] != 3 {
		t.Errorf("failed counter = %d, want 3", pool.Stats()["failed"])
	}
}

func TestPool_ConcurrentWorkersProcessEachItemOnce(t *testing.T) {
	var items []domain.ClaimedItem
	for i := 0; i < 200; i++ {
		items = append(items, claimable(i, fmt.Sprintf("user%d@example.com", i)))
	}
	q := newMockQueue(items...)
	msgs := newMockMessages()
	tr := &mockTransport{}
	pool := newPool(q, nil, msgs, newMockStats(), tr, PoolOptions{
		Workers:      8,
		BatchSize:    7,
		PollInterval: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	deadline := time.After(5 * time.Second)
	for {
		q.mu.Lock()
		drained := len(q.pending) == 0
		q.mu.Unlock()
		if drained && pool.Stats()["sent"] == 200 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out, sent=%d", pool.Stats()["sent"])
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	pool.Stop()

	if len(tr.sends) != 200 {
		t.Fatalf("sends = %d, want exactly 200", len(tr.sends))
	}
	seen := make(map[string]bool, 200)
	for _, to := range tr.sends {
		if seen[to] {
			t.Fatalf("recipient %s processed twice", to)
		}
		seen[to] = true
	}
}

func TestRecoveryWorker_RecoverOnce(t *testing.T) {
	rq := &recordingRecoveryQueue{requeued: 4, exhausted: 1}
	w := NewQueueRecoveryWorker(rq, 0, 0, 3)

	w.RecoverOnce(context.Background())
	if rq.requeueCalls != 1 || rq.failCalls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", rq.requeueCalls, rq.failCalls)
	}
	if rq.gotStale != DefaultStaleAge {
		t.Errorf("stale age = %v, want default", rq.gotStale)
	}
	if rq.gotRetries != 3 {
		t.Errorf("max retries = %d, want 3", rq.gotRetries)
	}
}

type recordingRecoveryQueue struct {
	requeued, exhausted      int
	requeueCalls, failCalls  int
	gotStale                 time.Duration
	gotRetries               int
}

func (r *recordingRecoveryQueue) RequeueStale(_ context.Context, staleAge time.Duration, maxRetries int) (int, error) {
	r.requeueCalls++
	r.gotStale = staleAge
	r.gotRetries = maxRetries
	return r.requeued, nil
}

func (r *recordingRecoveryQueue) FailExhausted(_ context.Context, staleAge time.Duration, maxRetries int) (int, error) {
	r.failCalls++
	return r.exhausted, nil
}
