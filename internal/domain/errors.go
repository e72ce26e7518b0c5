package domain

import "errors"

// ErrLeadNotFound is returned by lead lookups. Leads have no service layer of
// their own, so the sentinel lives with the type.
var ErrLeadNotFound = errors.New("lead not found")
