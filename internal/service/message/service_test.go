package message

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// mockRepo is an in-memory message repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.Message
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.Message)}
}

func (m *mockRepo) Get(_ context.Context, id string) (*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (m *mockRepo) GetByProviderMessageID(_ context.Context, pid string) (*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, msg := range m.store {
		if msg.ProviderMessageID == pid {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) LatestSentForLead(_ context.Context, leadID string) (*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Message
	for _, msg := range m.store {
		if msg.LeadID != leadID || !msg.Status.PostSent() {
			continue
		}
		if latest == nil || (msg.SentAt != nil && latest.SentAt != nil && msg.SentAt.After(*latest.SentAt)) {
			latest = msg
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.store[msg.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.store[msg.ID] = &cp
	return nil
}

func (m *mockRepo) CancelPreSendForLead(_ context.Context, leadID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, msg := range m.store {
		if msg.LeadID == leadID && !msg.Status.PostSent() &&
			msg.Status != domain.MessageCancelled && msg.Status != domain.MessageFailed {
			msg.Status = domain.MessageCancelled
			ids = append(ids, msg.ID)
		}
	}
	return ids, nil
}

func seed(t *testing.T, repo *mockRepo, status domain.MessageStatus) *domain.Message {
	t.Helper()
	m := &domain.Message{
		ID:           "msg-" + string(status),
		LeadID:       "lead-001",
		CampaignID:   "camp-001",
		SequenceStep: 1,
		Status:       status,
	}
	if status.PostSent() {
		sent := time.Now().Add(-time.Hour)
		m.SentAt = &sent
		m.ProviderMessageID = "prov-" + m.ID
	}
	repo.Create(context.Background(), m)
	return m
}

func TestTransition_HappyPath(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	m, err := svc.Create(ctx, "lead-001", "camp-001", 1, "Hello", "body")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, to := range []domain.MessageStatus{
		domain.MessagePendingReview,
		domain.MessageApproved,
		domain.MessageScheduled,
	} {
		if m, err = svc.Transition(ctx, m.ID, to); err != nil {
			t.Fatalf("Transition to %s: %v", to, err)
		}
	}
	if m.Status != domain.MessageScheduled {
		t.Errorf("status = %s, want scheduled", m.Status)
	}
}

func TestTransition_Invalid(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	m := seed(t, repo, domain.MessageDraft)

	if _, err := svc.Transition(context.Background(), m.ID, domain.MessageSent); err == nil {
		t.Error("expected error for draft -> sent")
	}
}

func TestCreate_RejectsStepZero(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Create(context.Background(), "lead-001", "camp-001", 0, "s", "b"); err == nil {
		t.Error("expected error for sequence step 0")
	}
}

func TestMarkSent_SetsProviderIDOnce(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	m := seed(t, repo, domain.MessageScheduled)

	got, err := svc.MarkSent(ctx, m.ID, "prov-123")
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if got.ProviderMessageID != "prov-123" {
		t.Errorf("provider id = %q", got.ProviderMessageID)
	}
	if got.Status != domain.MessageSent || got.SentAt == nil {
		t.Errorf("status = %s, sent_at = %v", got.Status, got.SentAt)
	}
}

func TestRecordOpen_RepeatedOpensIncrementWithoutRegressing(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	seed(t, repo, domain.MessageSent)

	for i := 0; i < 2; i++ {
		m, _ := repo.Get(ctx, "msg-sent")
		if err := svc.RecordOpen(ctx, m, time.Now()); err != nil {
			t.Fatalf("RecordOpen #%d: %v", i+1, err)
		}
	}

	m, _ := repo.Get(ctx, "msg-sent")
	if m.OpenCount != 2 {
		t.Errorf("open_count = %d, want 2", m.OpenCount)
	}
	if m.Status != domain.MessageOpened {
		t.Errorf("status = %s, want opened", m.Status)
	}

	// A late delivered event must not move status backward.
	if err := svc.RecordDelivered(ctx, m, time.Now()); err != nil {
		t.Fatalf("RecordDelivered: %v", err)
	}
	m, _ = repo.Get(ctx, "msg-sent")
	if m.Status != domain.MessageOpened {
		t.Errorf("delivered-after-opened regressed status to %s", m.Status)
	}
	if m.DeliveredAt == nil {
		t.Error("delivered_at not stamped by late delivered event")
	}
}

func TestRecordComplaint_NeverDowngraded(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	seed(t, repo, domain.MessageDelivered)

	m, _ := repo.Get(ctx, "msg-delivered")
	if err := svc.RecordComplaint(ctx, m, time.Now()); err != nil {
		t.Fatalf("RecordComplaint: %v", err)
	}

	// Benign events after the complaint must not resurrect the message.
	m, _ = repo.Get(ctx, "msg-delivered")
	svc.RecordOpen(ctx, m, time.Now())
	m, _ = repo.Get(ctx, "msg-delivered")
	if m.Status != domain.MessageComplained {
		t.Errorf("status = %s, want complained to stick", m.Status)
	}

	// Nor may a bounce replace it.
	svc.RecordBounce(ctx, m, time.Now())
	m, _ = repo.Get(ctx, "msg-delivered")
	if m.Status != domain.MessageComplained {
		t.Errorf("bounce downgraded complained to %s", m.Status)
	}
}

func TestRecordReply_KeepsDeliveryHistory(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	seed(t, repo, domain.MessageSent)

	m, _ := repo.Get(ctx, "msg-sent")
	svc.RecordOpen(ctx, m, time.Now())
	m, _ = repo.Get(ctx, "msg-sent")
	if err := svc.RecordReply(ctx, m, "positive", time.Now()); err != nil {
		t.Fatalf("RecordReply: %v", err)
	}

	m, _ = repo.Get(ctx, "msg-sent")
	if m.Status != domain.MessageReplied {
		t.Errorf("status = %s, want replied", m.Status)
	}
	if m.ReplyClassification != "positive" {
		t.Errorf("classification = %q", m.ReplyClassification)
	}
	if m.OpenedAt == nil || m.OpenCount != 1 {
		t.Error("reply erased open history")
	}
}

func TestCancelPreSendForLead(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	seed(t, repo, domain.MessageDraft)
	seed(t, repo, domain.MessageScheduled)
	seed(t, repo, domain.MessageSent)

	ids, err := svc.CancelPreSendForLead(ctx, "lead-001")
	if err != nil {
		t.Fatalf("CancelPreSendForLead: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("cancelled %d messages, want 2", len(ids))
	}

	sent, _ := repo.Get(ctx, "msg-sent")
	if sent.Status != domain.MessageSent {
		t.Errorf("already-sent message was cancelled")
	}
}
