package importer

import "errors"

// Sentinel errors for the importer service layer.
var (
	ErrJobNotFound = errors.New("import job not found")
	ErrJobFinished = errors.New("import job already finished")
)
