package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/events"
	"github.com/hirespeedy/outreach-engine/internal/service/importer"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
	"github.com/hirespeedy/outreach-engine/internal/service/sequence"
	"github.com/hirespeedy/outreach-engine/internal/service/suppression"
)

type mockImports struct {
	job        *domain.ImportJob
	getErr     error
	processErr error
}

func (m *mockImports) CreateJob(ctx context.Context) (*domain.ImportJob, error) {
	return &domain.ImportJob{ID: "job-1", Status: domain.ImportPending}, nil
}

func (m *mockImports) GetJob(ctx context.Context, id string) (*domain.ImportJob, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.job, nil
}

func (m *mockImports) ProcessJob(ctx context.Context, jobID string, rows []map[string]string, mapping map[string]string) (*domain.ImportJob, error) {
	if m.processErr != nil {
		return nil, m.processErr
	}
	return &domain.ImportJob{ID: jobID, Status: domain.ImportCompleted, TotalRows: len(rows), Successful: len(rows)}, nil
}

type mockSuppressions struct {
	entries    []domain.Suppression
	lastFilter suppression.ListFilter
	suppressed []string
}

func (m *mockSuppressions) Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource, leadID, notes string) error {
	m.suppressed = append(m.suppressed, email)
	return nil
}

func (m *mockSuppressions) Get(ctx context.Context, email string) (*domain.Suppression, error) {
	for i := range m.entries {
		if m.entries[i].Email == email {
			return &m.entries[i], nil
		}
	}
	return nil, suppression.ErrNotFound
}

func (m *mockSuppressions) List(ctx context.Context, filter suppression.ListFilter) ([]domain.Suppression, int, error) {
	m.lastFilter = filter
	return m.entries, len(m.entries), nil
}

func (m *mockSuppressions) GetStats(ctx context.Context) (*suppression.Stats, error) {
	return &suppression.Stats{Total: len(m.entries), ByReason: map[string]int{}, BySource: map[string]int{}}, nil
}

type mockProcessor struct {
	eventErr  error
	lastEvent domain.ProviderEvent
	replyOut  *events.ReplyOutcome
}

func (m *mockProcessor) ProcessEvent(ctx context.Context, ev domain.ProviderEvent) (*events.Outcome, error) {
	m.lastEvent = ev
	if m.eventErr != nil {
		return nil, m.eventErr
	}
	return &events.Outcome{MessageID: "msg-1", Actions: []string{"recorded_" + string(ev.Type)}}, nil
}

func (m *mockProcessor) ProcessReply(ctx context.Context, reply domain.InboundReply) (*events.ReplyOutcome, error) {
	if m.replyOut != nil {
		return m.replyOut, nil
	}
	return &events.ReplyOutcome{LeadFound: false}, nil
}

type mockQueueInspector struct {
	counts map[string]int
}

func (m *mockQueueInspector) CountByStatus(ctx context.Context) (map[string]int, error) {
	return m.counts, nil
}

type mockSender struct {
	processed int
	calls     int
}

func (m *mockSender) ProcessOnce(ctx context.Context) (int, error) {
	m.calls++
	return m.processed, nil
}

type mockCampaigns struct {
	created []*domain.Campaign
}

func (m *mockCampaigns) Create(ctx context.Context, c *domain.Campaign) error {
	m.created = append(m.created, c)
	return nil
}

func (m *mockCampaigns) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	for _, c := range m.created {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, sequence.ErrCampaignNotFound
}

type mockSequences struct {
	startErr error
	started  []string
	paused   []string
	resumed  []string
	advanced []string
}

func (m *mockSequences) Get(ctx context.Context, id string) (*domain.Sequence, error) {
	return &domain.Sequence{ID: id, Status: domain.SequenceActive}, nil
}

func (m *mockSequences) Start(ctx context.Context, leadID, campaignID string) (*domain.Sequence, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.started = append(m.started, leadID+"/"+campaignID)
	return &domain.Sequence{ID: "seq-1", LeadID: leadID, CampaignID: campaignID, Status: domain.SequenceActive, CurrentStep: 1}, nil
}

func (m *mockSequences) Pause(ctx context.Context, id, reason string) error {
	m.paused = append(m.paused, id)
	return nil
}

func (m *mockSequences) Resume(ctx context.Context, id string) error {
	m.resumed = append(m.resumed, id)
	return nil
}

func (m *mockSequences) Advance(ctx context.Context, id string) (*domain.Sequence, error) {
	m.advanced = append(m.advanced, id)
	return &domain.Sequence{ID: id, Status: domain.SequenceActive, CurrentStep: 2}, nil
}

func (m *mockSequences) Complete(ctx context.Context, id string) error { return nil }

func (m *mockSequences) PauseCampaign(ctx context.Context, campaignID, reason string) error {
	m.paused = append(m.paused, "campaign:"+campaignID)
	return nil
}

func (m *mockSequences) ResumeCampaign(ctx context.Context, campaignID string) error {
	m.resumed = append(m.resumed, "campaign:"+campaignID)
	return nil
}

type mockMessages struct {
	transitionErr error
	transitions   []string
}

func (m *mockMessages) Get(ctx context.Context, id string) (*domain.Message, error) {
	return &domain.Message{ID: id, Status: domain.MessageApproved}, nil
}

func (m *mockMessages) Create(ctx context.Context, leadID, campaignID string, step int, subject, body string) (*domain.Message, error) {
	return &domain.Message{ID: "msg-1", LeadID: leadID, CampaignID: campaignID, SequenceStep: step, Subject: subject, Body: body, Status: domain.MessageDraft}, nil
}

func (m *mockMessages) Transition(ctx context.Context, id string, to domain.MessageStatus) (*domain.Message, error) {
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	m.transitions = append(m.transitions, id+"->"+string(to))
	return &domain.Message{ID: id, Status: to}, nil
}

type mockEnqueuer struct {
	enqueued []string
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, messageID string, scheduledAt time.Time) (*domain.SendQueueItem, error) {
	m.enqueued = append(m.enqueued, messageID)
	return &domain.SendQueueItem{ID: "q-1", MessageID: messageID, ScheduledAt: scheduledAt, Status: domain.QueuePending}, nil
}

type mockConversations struct {
	messages []domain.ConversationMessage
}

func (m *mockConversations) Messages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error) {
	return m.messages, nil
}

type mockSweepLock struct {
	held     bool
	acquires int
	releases int
}

func (m *mockSweepLock) TryAcquire(ctx context.Context) (bool, error) {
	m.acquires++
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *mockSweepLock) Release(ctx context.Context) error {
	m.releases++
	m.held = false
	return nil
}

type mockDeadlines struct {
	breached []*domain.Deadline
	entity   []*domain.Deadline
}

func (m *mockDeadlines) Sweep(ctx context.Context, now time.Time) ([]*domain.Deadline, error) {
	return m.breached, nil
}

func (m *mockDeadlines) ListForEntity(ctx context.Context, entityType, entityID string) ([]*domain.Deadline, error) {
	return m.entity, nil
}

type fixture struct {
	imports       *mockImports
	suppressions  *mockSuppressions
	processor     *mockProcessor
	campaigns     *mockCampaigns
	sequences     *mockSequences
	messages      *mockMessages
	enqueuer      *mockEnqueuer
	conversations *mockConversations
	queue         *mockQueueInspector
	sender        *mockSender
	lock          *mockSweepLock
	deadlines     *mockDeadlines
	router        http.Handler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		imports:       &mockImports{},
		suppressions:  &mockSuppressions{},
		processor:     &mockProcessor{},
		campaigns:     &mockCampaigns{},
		sequences:     &mockSequences{},
		messages:      &mockMessages{},
		enqueuer:      &mockEnqueuer{},
		conversations: &mockConversations{},
		queue:         &mockQueueInspector{counts: map[string]int{"pending": 3, "processing": 1}},
		sender:        &mockSender{processed: 5},
		lock:          &mockSweepLock{},
		deadlines:     &mockDeadlines{},
	}
	h := NewHandlers(Deps{
		Imports:       f.imports,
		Suppressions:  f.suppressions,
		Processor:     f.processor,
		Campaigns:     f.campaigns,
		Sequences:     f.sequences,
		Messages:      f.messages,
		Queue:         f.queue,
		Enqueue:       f.enqueuer,
		Sender:        f.sender,
		Conversations: f.conversations,
		Deadlines:     f.deadlines,
		SweepLock:     f.lock,
	})
	f.router = SetupRoutes(h, nil)
	return f
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotNil(t, resp["queue"])
}

func TestCreateImport(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/imports", map[string]interface{}{
		"rows":    []map[string]string{{"email": "ada@example.com"}},
		"mapping": map[string]string{"email": "email"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var job domain.ImportJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, domain.ImportCompleted, job.Status)
	assert.Equal(t, 1, job.Successful)
}

func TestCreateImport_EmptyRows(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/imports", map[string]interface{}{"rows": []map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetImport_NotFound(t *testing.T) {
	f := setup(t)
	f.imports.getErr = importer.ErrJobNotFound

	rec := doJSON(t, f.router, http.MethodGet, "/api/imports/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProviderEventWebhook(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/webhooks/events", map[string]interface{}{
		"type": "delivered",
		"data": map[string]string{"event_id": "evt-1", "email_id": "ses-msg-1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["accepted"])
	assert.Equal(t, "evt-1", f.processor.lastEvent.ProviderID)
	assert.False(t, f.processor.lastEvent.OccurredAt.IsZero(), "missing timestamp should be defaulted")
}

func TestProviderEventWebhook_UnknownMessageIs200(t *testing.T) {
	f := setup(t)
	f.processor.eventErr = events.ErrUnknownMessage

	rec := doJSON(t, f.router, http.MethodPost, "/api/webhooks/events", map[string]interface{}{
		"type": "delivered",
		"data": map[string]string{"event_id": "evt-2", "email_id": "not-ours"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["accepted"])
}

func TestProviderEventWebhook_MissingFields(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/webhooks/events", map[string]interface{}{
		"type": "delivered",
		"data": map[string]string{"event_id": "evt-3"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInboundReplyWebhook_UnknownSender(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/webhooks/replies", map[string]interface{}{
		"from_email": "stranger@example.com",
		"body_text":  "who is this?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp events.ReplyOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.LeadFound)
}

func TestInboundReplyWebhook_Classified(t *testing.T) {
	f := setup(t)
	f.processor.replyOut = &events.ReplyOutcome{
		LeadFound:      true,
		LeadID:         "lead-1",
		Classification: "positive",
		Confidence:     0.9,
	}

	rec := doJSON(t, f.router, http.MethodPost, "/api/webhooks/replies", map[string]interface{}{
		"from_email": "ada@example.com",
		"body_text":  "yes, let's talk",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp events.ReplyOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.LeadFound)
	assert.Equal(t, "positive", resp.Classification)
}

func TestCreateSuppression(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/suppressions", map[string]string{
		"email": "  Ada@Example.com ",
		"notes": "asked via phone",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.suppressions.suppressed, 1)
	assert.Equal(t, "ada@example.com", f.suppressions.suppressed[0])
}

func TestCreateSuppression_InvalidEmail(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/suppressions", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.suppressions.suppressed)
}

func TestListSuppressions_Filters(t *testing.T) {
	f := setup(t)
	f.suppressions.entries = []domain.Suppression{{Email: "ada@example.com", Reason: domain.ReasonBounce}}

	rec := doJSON(t, f.router, http.MethodGet, "/api/suppressions?reason=bounce&limit=10&offset=20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bounce", f.suppressions.lastFilter.Reason)
	assert.Equal(t, 10, f.suppressions.lastFilter.Limit)
	assert.Equal(t, 20, f.suppressions.lastFilter.Offset)
}

func TestGetSuppression_NotFound(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodGet, "/api/suppressions/nobody@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessQueue(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/queue/process", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(5), resp["processed"])
	assert.Equal(t, 1, f.sender.calls)
	assert.Equal(t, 1, f.lock.releases, "lock must be released after the sweep")
}

func TestProcessQueue_LockContention(t *testing.T) {
	f := setup(t)
	f.lock.held = true

	rec := doJSON(t, f.router, http.MethodPost, "/api/queue/process", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 0, f.sender.calls)
}

func TestSweepDeadlines(t *testing.T) {
	f := setup(t)
	f.deadlines.breached = []*domain.Deadline{{ID: "dl-1", Status: domain.DeadlineBreached}}

	rec := doJSON(t, f.router, http.MethodPost, "/api/sla/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["breached_count"])
}

func TestCreateAndGetCampaign(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/campaigns", map[string]interface{}{
		"name":            "Q3 CTO outreach",
		"goal":            "book intro calls",
		"tonality":        "direct",
		"max_word_count":  120,
		"forbidden_words": []string{"guarantee"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var c domain.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, domain.CampaignActive, c.Status)
	require.NotEmpty(t, c.ID)

	rec = doJSON(t, f.router, http.MethodGet, "/api/campaigns/"+c.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.router, http.MethodGet, "/api/campaigns/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartSequence_Conflict(t *testing.T) {
	f := setup(t)
	f.sequences.startErr = sequence.ErrAlreadyActive

	rec := doJSON(t, f.router, http.MethodPost, "/api/sequences", map[string]string{
		"lead_id": "lead-1", "campaign_id": "camp-1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSequenceLifecycleEndpoints(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/sequences", map[string]string{
		"lead_id": "lead-1", "campaign_id": "camp-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, f.router, http.MethodPost, "/api/sequences/seq-1/pause", map[string]string{"reason": "vacation hold"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.router, http.MethodPost, "/api/sequences/seq-1/resume", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.router, http.MethodPost, "/api/sequences/seq-1/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"seq-1"}, f.sequences.paused)
	assert.Equal(t, []string{"seq-1"}, f.sequences.resumed)
	assert.Equal(t, []string{"seq-1"}, f.sequences.advanced)
}

func TestScheduleMessage_EnqueuesAfterTransition(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/messages/msg-1/schedule", map[string]interface{}{
		"scheduled_at": time.Now().Add(time.Hour).UTC(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"msg-1->scheduled"}, f.messages.transitions)
	assert.Equal(t, []string{"msg-1"}, f.enqueuer.enqueued)
}

func TestScheduleMessage_InvalidTransitionSkipsQueue(t *testing.T) {
	f := setup(t)
	f.messages.transitionErr = message.ErrInvalidTransition

	rec := doJSON(t, f.router, http.MethodPost, "/api/messages/msg-1/schedule", map[string]interface{}{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.enqueuer.enqueued, "a rejected transition must not enqueue")
}

func TestConversationMessages(t *testing.T) {
	f := setup(t)
	f.conversations.messages = []domain.ConversationMessage{
		{ID: "cm-1", Direction: domain.DirectionOutbound, Content: "intro"},
		{ID: "cm-2", Direction: domain.DirectionInbound, Content: "sounds good"},
	}

	rec := doJSON(t, f.router, http.MethodGet, "/api/conversations/conv-1/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []domain.ConversationMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)
}

func TestEntityDeadlines(t *testing.T) {
	f := setup(t)
	f.deadlines.entity = []*domain.Deadline{{ID: "dl-1", EntityType: "lead", EntityID: "lead-1"}}

	rec := doJSON(t, f.router, http.MethodGet, "/api/sla/lead/lead-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Deadlines []domain.Deadline `json:"deadlines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Deadlines, 1)
}

func TestMessageDraftAndReviewFlow(t *testing.T) {
	f := setup(t)

	rec := doJSON(t, f.router, http.MethodPost, "/api/messages", map[string]interface{}{
		"lead_id": "lead-1", "campaign_id": "camp-1", "step": 1,
		"subject": "Quick question", "body": "Saw your launch...",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var m domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, domain.MessageDraft, m.Status)

	rec = doJSON(t, f.router, http.MethodPost, "/api/messages/"+m.ID+"/transition", map[string]string{"status": "pending_review"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"msg-1->pending_review"}, f.messages.transitions)

	rec = doJSON(t, f.router, http.MethodGet, "/api/messages/"+m.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
