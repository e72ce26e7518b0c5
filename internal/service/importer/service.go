package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
)

// Default processing bounds, overridable via Options.
const (
	DefaultBatchSize    = 50
	DefaultMaxRowErrors = 100
)

// Options tunes the import pipeline.
type Options struct {
	BatchSize    int
	MaxRowErrors int
}

// Service implements the import pipeline.
type Service struct {
	jobs     JobRepository
	leads    LeadWriter
	suppress SuppressionChecker
	opts     Options
	now      func() time.Time
}

// NewService creates an importer. Zero-valued options fall back to defaults.
func NewService(jobs JobRepository, leads LeadWriter, suppress SuppressionChecker, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxRowErrors <= 0 {
		opts.MaxRowErrors = DefaultMaxRowErrors
	}
	return &Service{jobs: jobs, leads: leads, suppress: suppress, opts: opts, now: time.Now}
}

// CreateJob registers a new pending import job and returns it.
func (s *Service) CreateJob(ctx context.Context) (*domain.ImportJob, error) {
	job := &domain.ImportJob{
		ID:     uuid.New().String(),
		Status: domain.ImportPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns a job's current progress record.
func (s *Service) GetJob(ctx context.Context, id string) (*domain.ImportJob, error) {
	return s.jobs.Get(ctx, id)
}

// systemFields are the targets a column mapping may point at.
var systemFields = map[string]bool{
	"email":          true,
	"contact_name":   true,
	"company_name":   true,
	"company_domain": true,
	"job_title":      true,
}

// applyMapping translates a raw row's column names to system fields. With no
// mapping the raw keys are used directly (lowercased, trimmed).
func applyMapping(raw map[string]string, mapping map[string]string) domain.ImportRow {
	fields := make(map[string]string, len(raw))
	for col, val := range raw {
		key := strings.ToLower(strings.TrimSpace(col))
		if mapping != nil {
			if mapped, ok := mapping[col]; ok {
				key = mapped
			}
		}
		if systemFields[key] {
			fields[key] = strings.TrimSpace(val)
		}
	}
	return domain.ImportRow{
		Email:         fields["email"],
		ContactName:   fields["contact_name"],
		CompanyName:   fields["company_name"],
		CompanyDomain: fields["company_domain"],
		JobTitle:      fields["job_title"],
	}
}

// validateRow returns a human-readable reason if the row must be rejected.
func validateRow(row domain.ImportRow) string {
	if row.CompanyName == "" {
		return "company name is required"
	}
	if row.ContactName == "" {
		return "contact name is required"
	}
	if row.Email == "" {
		return "email is required"
	}
	if !domain.ValidEmail(row.Email) {
		return "invalid email format"
	}
	return ""
}

// ProcessJob runs the import for a job over the given raw rows. Row failures
// are collected on the job; only malformed job input marks the job failed.
func (s *Service) ProcessJob(ctx context.Context, jobID string, rows []map[string]string, mapping map[string]string) (*domain.ImportJob, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.ImportCompleted || job.Status == domain.ImportFailed {
		return job, ErrJobFinished
	}

	// Validate the mapping itself before touching any row; a bad mapping is
	// a job-level failure, not a per-row one.
	for col, field := range mapping {
		if !systemFields[field] {
			job.Status = domain.ImportFailed
			job.Error = fmt.Sprintf("mapping for column %q targets unknown field %q", col, field)
			if uerr := s.jobs.Update(ctx, job); uerr != nil {
				return nil, uerr
			}
			return job, nil
		}
	}

	started := s.now()
	job.Status = domain.ImportProcessing
	job.StartedAt = &started
	job.TotalRows = len(rows)
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}

	for offset := 0; offset < len(rows); offset += s.opts.BatchSize {
		end := offset + s.opts.BatchSize
		if end > len(rows) {
			end = len(rows)
		}

		for i := offset; i < end; i++ {
			s.processRow(ctx, job, i, rows[i], mapping)
			job.Processed++
		}

		// Persist progress after every batch so a crash mid-import leaves a
		// resumable, auditable partial state.
		if err := s.jobs.Update(ctx, job); err != nil {
			return nil, err
		}
	}

	completed := s.now()
	job.Status = domain.ImportCompleted
	job.CompletedAt = &completed
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}

	logger.Info("import job finished",
		"job_id", job.ID,
		"processed", job.Processed,
		"successful", job.Successful,
		"failed", job.Failed,
		"duplicates", job.Duplicates,
	)
	return job, nil
}

func (s *Service) processRow(ctx context.Context, job *domain.ImportJob, idx int, raw map[string]string, mapping map[string]string) {
	row := applyMapping(raw, mapping)
	row.Email = domain.NormalizeEmail(row.Email)

	if reason := validateRow(row); reason != "" {
		s.rowFailed(job, idx, row.Email, reason)
		return
	}

	suppressed, err := s.suppress.IsSuppressed(ctx, row.Email)
	if err != nil {
		s.rowFailed(job, idx, row.Email, "suppression check failed: "+err.Error())
		return
	}
	if suppressed {
		s.rowFailed(job, idx, row.Email, "address is suppressed")
		return
	}

	exists, err := s.leads.ExistsByEmail(ctx, row.Email)
	if err != nil {
		s.rowFailed(job, idx, row.Email, "lead lookup failed: "+err.Error())
		return
	}
	if exists {
		job.Duplicates++
		return
	}

	lead := &domain.Lead{
		ID:            uuid.New().String(),
		Email:         row.Email,
		ContactName:   row.ContactName,
		CompanyName:   row.CompanyName,
		CompanyDomain: row.CompanyDomain,
		JobTitle:      row.JobTitle,
		Status:        domain.LeadNew,
		ImportJobID:   job.ID,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		s.rowFailed(job, idx, row.Email, "insert failed: "+err.Error())
		return
	}
	job.Successful++
}

// rowFailed records a row-level error, capping the stored log.
func (s *Service) rowFailed(job *domain.ImportJob, idx int, email, reason string) {
	job.Failed++
	if len(job.RowErrors) < s.opts.MaxRowErrors {
		re := domain.RowError{Row: idx + 1, Reason: reason}
		if email != "" {
			re.Email = logger.RedactEmail(email)
		}
		job.RowErrors = append(job.RowErrors, re)
	}
}
