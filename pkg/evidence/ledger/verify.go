package ledger

import "strconv"

// IssueKind classifies one integrity violation found during verification.
type IssueKind string

const (
	// IssueGenesisPreviousHash means the genesis node carries a non-nil
	// previous hash.
	IssueGenesisPreviousHash IssueKind = "genesis_previous_hash"
	// IssuePreviousHashMismatch means a node's previous hash does not
	// match its predecessor's record hash (reordered or spliced chain).
	IssuePreviousHashMismatch IssueKind = "previous_hash_mismatch"
	// IssueDataHashMismatch means the stored evidence content no longer
	// hashes to the node's data hash (content tampering).
	IssueDataHashMismatch IssueKind = "data_hash_mismatch"
	// IssueRecordHashMismatch means the node's positional commitment does
	// not recompute from its stored fields.
	IssueRecordHashMismatch IssueKind = "record_hash_mismatch"
	// IssueSequenceGap means a node's sequence number does not equal its
	// position in the chain.
	IssueSequenceGap IssueKind = "sequence_gap"
)

// Issue is one integrity finding. Issues are reported, never thrown: the
// ledger surfaces them for forensic review and does not attempt repair.
type Issue struct {
	EvidenceID     string    `json:"node"`
	SequenceNumber int       `json:"sequence"`
	Kind           IssueKind `json:"issue"`
	Expected       string    `json:"expected,omitempty"`
	Actual         string    `json:"actual,omitempty"`
}

// VerificationResult is the outcome of a full chain walk. A verification
// always completes; every issue found is collected rather than the walk
// stopping at the first mismatch.
type VerificationResult struct {
	Valid      bool    `json:"valid"`
	TotalNodes int     `json:"total_nodes"`
	Errors     []Issue `json:"errors"`
}

// VerifyNodes walks a node list and collects every integrity issue. Empty
// and single-node chains are trivially valid apart from their own node
// checks. It works on any node slice, which lets an exported chain be
// re-verified outside the process that produced it.
func VerifyNodes(nodes []*ChainNode) *VerificationResult {
	result := &VerificationResult{
		Valid:      true,
		TotalNodes: len(nodes),
		Errors:     []Issue{},
	}

	for i, node := range nodes {
		// Position must match the recorded sequence number.
		if node.SequenceNumber != i {
			result.Errors = append(result.Errors, Issue{
				EvidenceID:     node.EvidenceID,
				SequenceNumber: node.SequenceNumber,
				Kind:           IssueSequenceGap,
				Expected:       strconv.Itoa(i),
				Actual:         strconv.Itoa(node.SequenceNumber),
			})
		}

		// Content hash: recompute from the stored evidence bytes. The
		// stored bytes are re-canonicalized first so formatting-only
		// differences do not mask or fake tampering.
		canonical, err := Canonicalize(node.EvidenceData)
		if err != nil {
			result.Errors = append(result.Errors, Issue{
				EvidenceID:     node.EvidenceID,
				SequenceNumber: node.SequenceNumber,
				Kind:           IssueDataHashMismatch,
				Expected:       node.DataHash,
				Actual:         "unparseable evidence_data: " + err.Error(),
			})
		} else if got := HashContent(canonical); got != node.DataHash {
			result.Errors = append(result.Errors, Issue{
				EvidenceID:     node.EvidenceID,
				SequenceNumber: node.SequenceNumber,
				Kind:           IssueDataHashMismatch,
				Expected:       got,
				Actual:         node.DataHash,
			})
		}

		// Positional hash: recompute from the stored linkage fields.
		if got := computeRecordHash(node.PreviousHash, node.DataHash, node.Timestamp); got != node.RecordHash {
			result.Errors = append(result.Errors, Issue{
				EvidenceID:     node.EvidenceID,
				SequenceNumber: node.SequenceNumber,
				Kind:           IssueRecordHashMismatch,
				Expected:       got,
				Actual:         node.RecordHash,
			})
		}

		// Chain linkage.
		if i == 0 {
			if node.PreviousHash != nil {
				result.Errors = append(result.Errors, Issue{
					EvidenceID:     node.EvidenceID,
					SequenceNumber: node.SequenceNumber,
					Kind:           IssueGenesisPreviousHash,
					Expected:       "",
					Actual:         *node.PreviousHash,
				})
			}
		} else {
			prev := nodes[i-1]
			if node.PreviousHash == nil || *node.PreviousHash != prev.RecordHash {
				actual := ""
				if node.PreviousHash != nil {
					actual = *node.PreviousHash
				}
				result.Errors = append(result.Errors, Issue{
					EvidenceID:     node.EvidenceID,
					SequenceNumber: node.SequenceNumber,
					Kind:           IssuePreviousHashMismatch,
					Expected:       prev.RecordHash,
					Actual:         actual,
				})
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
