package domain

import "time"

// ImportJobStatus enumerates the states of a bulk lead import job.
type ImportJobStatus string

const (
	ImportPending    ImportJobStatus = "pending"
	ImportProcessing ImportJobStatus = "processing"
	ImportCompleted  ImportJobStatus = "completed"
	ImportFailed     ImportJobStatus = "failed"
)

// RowError records a single rejected import row. Collected, never fatal to
// the batch.
type RowError struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// ImportJob tracks progress of one bulk lead import. Progress is persisted
// after every batch so a crash mid-import leaves a resumable, auditable
// partial state.
type ImportJob struct {
	ID          string          `json:"id" db:"id"`
	Status      ImportJobStatus `json:"status" db:"status"`
	TotalRows   int             `json:"total_rows" db:"total_rows"`
	Processed   int             `json:"processed" db:"processed"`
	Successful  int             `json:"successful" db:"successful"`
	Failed      int             `json:"failed" db:"failed"`
	Duplicates  int             `json:"duplicates" db:"duplicates"`
	RowErrors   []RowError      `json:"row_errors,omitempty"`
	Error       string          `json:"error,omitempty" db:"error"`
	StartedAt   *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ImportRow is one raw row of a lead import batch, after column mapping.
type ImportRow struct {
	Email         string `json:"email"`
	ContactName   string `json:"contact_name"`
	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
}
