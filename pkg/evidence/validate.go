package evidence

import "fmt"

const (
	// MaxMetadataEntries bounds the number of metadata key/value pairs.
	MaxMetadataEntries = 32
	// MaxMetadataValueLength bounds the length of a single metadata value.
	MaxMetadataValueLength = 1024
	// MaxLinkageEntries bounds the number of linkage relations per record.
	MaxLinkageEntries = 16
)

// Validate checks a capture request before any write happens. It returns a
// ValidationError describing the first problem found, or nil.
func (r *CaptureRequest) Validate() error {
	if !r.EventType.Valid() {
		return NewValidationError("event_type", fmt.Sprintf("unknown event type %q", string(r.EventType)))
	}
	if r.Regulation.Framework == "" {
		return NewValidationError("regulation.framework", "required")
	}
	if r.Regulation.Clause == "" {
		return NewValidationError("regulation.clause", "required")
	}
	if r.Detection.DetectedBy == "" {
		return NewValidationError("detection.detected_by", "required")
	}
	if r.Detection.SourceID == "" {
		return NewValidationError("detection.source_id", "required")
	}

	if len(r.Linkages) > MaxLinkageEntries {
		return NewValidationError("linkages", fmt.Sprintf("at most %d linkages allowed", MaxLinkageEntries))
	}
	for relation, target := range r.Linkages {
		if relation == "" {
			return NewValidationError("linkages", "linkage relation must be non-empty")
		}
		if target == "" {
			return NewValidationError("linkages", fmt.Sprintf("linkage %q must reference an evidence_id", relation))
		}
	}

	if len(r.Metadata) > MaxMetadataEntries {
		return NewValidationError("metadata", fmt.Sprintf("at most %d metadata entries allowed", MaxMetadataEntries))
	}
	for key, value := range r.Metadata {
		if key == "" {
			return NewValidationError("metadata", "metadata key must be non-empty")
		}
		if len(value) > MaxMetadataValueLength {
			return NewValidationError("metadata", fmt.Sprintf("metadata value for %q exceeds %d bytes", key, MaxMetadataValueLength))
		}
	}

	// Remediation events must say what was done.
	if r.EventType == EventRemediationApplied {
		if r.Remediation == nil {
			return NewValidationError("remediation", "required for remediation_applied events")
		}
		if r.Remediation.Action == "" {
			return NewValidationError("remediation.action", "required")
		}
	}

	return nil
}
