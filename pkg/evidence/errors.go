package evidence

import "fmt"

// ValidationError reports a malformed capture request. It is returned before
// any index or ledger write happens.
type ValidationError struct {
	Field  string // Offending field (e.g. "event_type", "regulation.framework")
	Reason string // Why the field is invalid
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.Reason)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError represents an I/O failure in an index backend or the chain
// store. A StorageError during capture aborts the operation; the ledger and
// its persisted form never diverge.
type StorageError struct {
	Backend   string // "sqlite", "memory", "chainfile", ...
	Operation string // "store", "query", "save", "load", ...
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// NotFoundError reports an unknown evidence_id.
type NotFoundError struct {
	EvidenceID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("evidence not found: %s", e.EvidenceID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(evidenceID string) *NotFoundError {
	return &NotFoundError{EvidenceID: evidenceID}
}

// CaptureError represents a failed capture operation.
type CaptureError struct {
	EvidenceID string // Evidence ID assigned before the failure, if any
	Cause      error  // Underlying error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	if e.EvidenceID != "" {
		return fmt.Sprintf("capture error [evidence_id=%s]: %v", e.EvidenceID, e.Cause)
	}
	return fmt.Sprintf("capture error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// NewCaptureError creates a new CaptureError.
func NewCaptureError(evidenceID string, cause error) *CaptureError {
	return &CaptureError{EvidenceID: evidenceID, Cause: cause}
}

// ExportError represents a failed export operation.
type ExportError struct {
	Format      string // "json", "csv"
	RecordCount int    // Records written before the failure
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, records=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{Format: format, RecordCount: recordCount, Cause: cause}
}
