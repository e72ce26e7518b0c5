package importer

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// ---- in-memory fixtures ----

type mockJobRepo struct {
	mu      sync.Mutex
	store   map[string]*domain.ImportJob
	updates int
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{store: make(map[string]*domain.ImportJob)}
}

func (m *mockJobRepo) Get(_ context.Context, id string) (*domain.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *j
	cp.RowErrors = append([]domain.RowError(nil), j.RowErrors...)
	return &cp, nil
}

func (m *mockJobRepo) Create(_ context.Context, job *domain.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *mockJobRepo) Update(_ context.Context, job *domain.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	cp.RowErrors = append([]domain.RowError(nil), job.RowErrors...)
	m.store[job.ID] = &cp
	m.updates++
	return nil
}

type mockLeadWriter struct {
	mu     sync.Mutex
	emails map[string]bool
}

func newMockLeadWriter(existing ...string) *mockLeadWriter {
	m := &mockLeadWriter{emails: make(map[string]bool)}
	for _, e := range existing {
		m.emails[strings.ToLower(e)] = true
	}
	return m
}

func (m *mockLeadWriter) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emails[strings.ToLower(email)], nil
}

func (m *mockLeadWriter) Create(_ context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[strings.ToLower(lead.Email)] = true
	return nil
}

type noSuppression struct{}

func (noSuppression) IsSuppressed(context.Context, string) (bool, error) { return false, nil }

type fixedSuppression map[string]bool

func (f fixedSuppression) IsSuppressed(_ context.Context, email string) (bool, error) {
	return f[strings.ToLower(email)], nil
}

// ---- tests ----

func TestProcessJob_MixedBatch(t *testing.T) {
	jobs := newMockJobRepo()
	leads := newMockLeadWriter("existing@example.com")
	svc := NewService(jobs, leads, noSuppression{}, Options{})
	ctx := context.Background()

	job, err := svc.CreateJob(ctx)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	rows := []map[string]string{
		{"email": "Existing@Example.com", "contact_name": "Max", "company_name": "Acme"},
		{"email": "new@example.com", "contact_name": "Mia", "company_name": ""},
		{"email": "fresh@example.com", "contact_name": "Kim", "company_name": "Globex"},
	}

	got, err := svc.ProcessJob(ctx, job.ID, rows, nil)
	if err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	if got.Status != domain.ImportCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Successful != 1 || got.Duplicates != 1 || got.Failed != 1 {
		t.Errorf("successful=%d duplicates=%d failed=%d, want 1/1/1",
			got.Successful, got.Duplicates, got.Failed)
	}
	if got.Processed != 3 {
		t.Errorf("processed = %d, want 3", got.Processed)
	}
	if len(got.RowErrors) != 1 || !strings.Contains(got.RowErrors[0].Reason, "company name") {
		t.Errorf("row errors = %+v", got.RowErrors)
	}
}

func TestProcessJob_ColumnMapping(t *testing.T) {
	jobs := newMockJobRepo()
	leads := newMockLeadWriter()
	svc := NewService(jobs, leads, noSuppression{}, Options{})
	ctx := context.Background()

	job, _ := svc.CreateJob(ctx)
	rows := []map[string]string{
		{"E-Mail Adresse": "lead@example.com", "Ansprechpartner": "Jana Weber", "Firma": "Musterfirma GmbH"},
	}
	mapping := map[string]string{
		"E-Mail Adresse":  "email",
		"Ansprechpartner": "contact_name",
		"Firma":           "company_name",
	}

	got, err := svc.ProcessJob(ctx, job.ID, rows, mapping)
	if err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if got.Successful != 1 {
		t.Errorf("successful = %d, want 1; errors: %+v", got.Successful, got.RowErrors)
	}

	exists, _ := leads.ExistsByEmail(ctx, "lead@example.com")
	if !exists {
		t.Error("mapped lead not inserted")
	}
}

func TestProcessJob_BadMappingFailsJob(t *testing.T) {
	jobs := newMockJobRepo()
	svc := NewService(jobs, newMockLeadWriter(), noSuppression{}, Options{})
	ctx := context.Background()

	job, _ := svc.CreateJob(ctx)
	got, err := svc.ProcessJob(ctx, job.ID, []map[string]string{{"a": "b"}}, map[string]string{"a": "not_a_field"})
	if err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if got.Status != domain.ImportFailed {
		t.Errorf("status = %s, want failed for malformed job input", got.Status)
	}
	if got.Error == "" {
		t.Error("job error not recorded")
	}
}

func TestProcessJob_UnknownJob(t *testing.T) {
	svc := NewService(newMockJobRepo(), newMockLeadWriter(), noSuppression{}, Options{})
	if _, err := svc.ProcessJob(context.Background(), "nope", nil, nil); err != ErrJobNotFound {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestProcessJob_SuppressedAddressRejected(t *testing.T) {
	jobs := newMockJobRepo()
	leads := newMockLeadWriter()
	svc := NewService(jobs, leads, fixedSuppression{"blocked@example.com": true}, Options{})
	ctx := context.Background()

	job, _ := svc.CreateJob(ctx)
	rows := []map[string]string{
		{"email": "blocked@example.com", "contact_name": "Leo", "company_name": "Initech"},
	}
	got, _ := svc.ProcessJob(ctx, job.ID, rows, nil)

	if got.Failed != 1 || got.Successful != 0 {
		t.Errorf("failed=%d successful=%d, want 1/0", got.Failed, got.Successful)
	}
	exists, _ := leads.ExistsByEmail(ctx, "blocked@example.com")
	if exists {
		t.Error("suppressed address was imported")
	}
}

func TestProcessJob_ProgressPersistedPerBatch(t *testing.T) {
	jobs := newMockJobRepo()
	svc := NewService(jobs, newMockLeadWriter(), noSuppression{}, Options{BatchSize: 2})
	ctx := context.Background()

	job, _ := svc.CreateJob(ctx)
	var rows []map[string]string
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"} {
		rows = append(rows, map[string]string{"email": e, "contact_name": "n", "company_name": "c"})
	}

	before := jobs.updates
	if _, err := svc.ProcessJob(ctx, job.ID, rows, nil); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	// initial + 3 batches (2+2+1) + final = 5 updates
	if got := jobs.updates - before; got != 5 {
		t.Errorf("job updates = %d, want 5 (progress persisted per batch)", got)
	}
}

func TestProcessJob_RowErrorLogCapped(t *testing.T) {
	jobs := newMockJobRepo()
	svc := NewService(jobs, newMockLeadWriter(), noSuppression{}, Options{MaxRowErrors: 3})
	ctx := context.Background()

	job, _ := svc.CreateJob(ctx)
	var rows []map[string]string
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]string{"email": "", "contact_name": "n", "company_name": "c"})
	}

	got, _ := svc.ProcessJob(ctx, job.ID, rows, nil)
	if got.Failed != 10 {
		t.Errorf("failed = %d, want 10", got.Failed)
	}
	if len(got.RowErrors) != 3 {
		t.Errorf("stored row errors = %d, want cap of 3", len(got.RowErrors))
	}
}
