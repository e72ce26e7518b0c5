// Package importer implements the bulk lead import pipeline.
//
// Rows are validated and deduplicated against the lead store and the
// suppression registry, then inserted in bounded batches with progress
// persisted after every batch — a crash mid-import leaves a resumable,
// auditable partial state. Row-level problems are collected, never fatal:
// a job finishes completed even when some rows failed. Only errors outside
// row processing (malformed job input) mark the job failed.
package importer
