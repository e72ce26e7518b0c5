package sequence

import "errors"

// Sentinel errors for the sequence service layer.
var (
	ErrNotFound         = errors.New("sequence not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrAlreadyActive    = errors.New("an active sequence already exists for this lead and campaign")
	ErrNotActive        = errors.New("sequence is not active")
	ErrNotPaused        = errors.New("sequence is not paused")
	ErrComplianceHold   = errors.New("sequence is paused for a compliance reason and the lead is still suppressed")
	ErrLeadSuppressed   = errors.New("lead is suppressed")
)
