package models

import "fmt"

// ValidationError represents a per-row data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// IngestError represents a fatal dataset-level ingestion failure:
// the file is missing, unreadable, or its schema does not match the
// expected trip record columns.
type IngestError struct {
	Path    string
	Message string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %s", e.Path, e.Message)
}

func (e *IngestError) IsTransient() bool {
	return false
}
