package evidence

import (
	"context"
	"time"
)

// EventType classifies the compliance event an evidence record describes.
type EventType string

const (
	// EventViolationDetected records a detected compliance violation.
	EventViolationDetected EventType = "violation_detected"
	// EventRemediationApplied records a remediation applied to an earlier violation.
	EventRemediationApplied EventType = "remediation_applied"
	// EventReasoningCompleted records a completed reasoning/analysis step.
	EventReasoningCompleted EventType = "reasoning_completed"
	// EventPolicyAnswered records an answered regulatory policy question.
	EventPolicyAnswered EventType = "policy_answered"
	// EventManualAnnotation records a manual annotation by an auditor.
	EventManualAnnotation EventType = "manual_annotation"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventViolationDetected, EventRemediationApplied,
		EventReasoningCompleted, EventPolicyAnswered, EventManualAnnotation:
		return true
	}
	return false
}

// Regulation identifies the regulatory requirement an evidence record relates to.
type Regulation struct {
	Framework   string `json:"framework"`   // e.g. "PCI-DSS", "GDPR"
	Clause      string `json:"clause"`      // e.g. "3.4", "PAN Exposure"
	Requirement string `json:"requirement"` // Requirement text
}

// Detection describes how and where a compliance event was detected.
type Detection struct {
	DetectedBy     string `json:"detected_by"`     // Detector name
	SourceType     string `json:"source_type"`     // "transaction", "application_log", ...
	SourceID       string `json:"source_id"`       // Source identifier
	MatchedPattern string `json:"matched_pattern"` // Pattern that matched
}

// ViolationState captures content snapshots around a violation.
type ViolationState struct {
	Before string `json:"before"`
	After  string `json:"after,omitempty"`
}

// Remediation describes a remediation action taken for a violation.
type Remediation struct {
	Action    string `json:"action"`          // e.g. "mask_pan", "redact_field"
	AppliedBy string `json:"applied_by"`      // Remediation engine or operator
	Result    string `json:"result"`          // e.g. "applied", "rejected"
	Notes     string `json:"notes,omitempty"` // Free-form notes
}

// ReasoningStep is one step in a reasoning chain.
type ReasoningStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
}

// ReasoningChain captures the reasoning trail that led to a conclusion.
type ReasoningChain struct {
	Model      string          `json:"model"`
	Steps      []ReasoningStep `json:"steps,omitempty"`
	Conclusion string          `json:"conclusion"`
	Confidence float64         `json:"confidence,omitempty"`
}

// EvidenceRecord is one immutable fact about a compliance event. Once a record
// has been appended to the ledger its serialized form never changes; later
// facts about the same event are captured as new records that reference the
// original through Linkages (for example {"remediates": "EVID-..."}).
type EvidenceRecord struct {
	EvidenceID string    `json:"evidence_id"`
	EventType  EventType `json:"event_type"`

	Regulation Regulation `json:"regulation"`
	Detection  Detection  `json:"detection"`

	ViolationState *ViolationState `json:"violation_state,omitempty"`
	Remediation    *Remediation    `json:"remediation,omitempty"`
	ReasoningChain *ReasoningChain `json:"reasoning_chain,omitempty"`

	// Linkages maps a relation ("corrects", "remediates", "supersedes",
	// "derived_from") to the evidence_id of a related record.
	Linkages map[string]string `json:"linkages,omitempty"`

	// Metadata is a bounded set of string key/value pairs. Well-known keys:
	// "tenant_id", "severity".
	Metadata map[string]string `json:"metadata,omitempty"`

	Timestamp time.Time `json:"timestamp"` // UTC, non-decreasing per process
}

// TenantID returns the record's tenant from metadata, or "" if unset.
func (r *EvidenceRecord) TenantID() string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata["tenant_id"]
}

// CaptureRequest is the input to Service.Capture. It mirrors the wire format
// accepted from detectors, remediation engines, and reasoning collaborators.
type CaptureRequest struct {
	EventType      EventType         `json:"event_type"`
	Regulation     Regulation        `json:"regulation"`
	Detection      Detection         `json:"detection"`
	ViolationState *ViolationState   `json:"violation_state,omitempty"`
	Remediation    *Remediation      `json:"remediation,omitempty"`
	ReasoningChain *ReasoningChain   `json:"reasoning_chain,omitempty"`
	Linkages       map[string]string `json:"linkages,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Query defines filter parameters for querying the evidence index.
type Query struct {
	// Time range (inclusive)
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	EventType  EventType `json:"event_type,omitempty"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Framework  string    `json:"framework,omitempty"`
	DetectedBy string    `json:"detected_by,omitempty"`
	SourceID   string    `json:"source_id,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Storage defines the interface for evidence index backends. The index serves
// read queries (get, list, range) without touching the ledger; the ledger
// remains the authoritative, tamper-evident record. Implementations must be
// safe for concurrent use.
type Storage interface {
	// Store persists an evidence record. Storing a record with an
	// evidence_id that already exists is an error.
	Store(ctx context.Context, record *EvidenceRecord) error

	// Get retrieves a record by evidence_id.
	// Returns a NotFoundError if no record matches.
	Get(ctx context.Context, evidenceID string) (*EvidenceRecord, error)

	// Query retrieves records matching the filters, ordered by timestamp
	// ascending. Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*EvidenceRecord, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes a record by evidence_id. It exists solely so that a
	// failed capture can roll back its index write; the service never
	// exposes deletion to callers.
	Delete(ctx context.Context, evidenceID string) error

	// Close releases any resources held by the backend.
	Close() error
}
