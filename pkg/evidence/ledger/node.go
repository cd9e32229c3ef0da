package ledger

import (
	"encoding/json"
	"time"
)

// ChainNode wraps one evidence record with hash-chain linkage and position.
// A node is created exactly once by Ledger.Append and never mutated; the
// ledger exposes no delete or reorder operation.
type ChainNode struct {
	// EvidenceID is the id of the wrapped evidence record.
	EvidenceID string `json:"evidence_id"`

	// PreviousHash is the record hash of the preceding node. It is nil
	// only for the genesis node.
	PreviousHash *string `json:"previous_hash"`

	// Timestamp is the evidence record's UTC capture time.
	Timestamp time.Time `json:"timestamp"`

	// EvidenceData is the canonical serialized form of the evidence
	// record, stored verbatim.
	EvidenceData json.RawMessage `json:"evidence_data"`

	// DataHash is the SHA-256 hash of the canonical EvidenceData bytes.
	DataHash string `json:"data_hash"`

	// RecordHash commits the node to its position:
	// SHA-256(previous_hash_or_empty || data_hash || timestamp).
	RecordHash string `json:"record_hash"`

	// SequenceNumber is the node's 0-based position in the chain.
	SequenceNumber int `json:"sequence_number"`
}

// hashTimestamp renders a timestamp the way record hashes commit to it.
func hashTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// computeRecordHash derives a node's record hash from its linkage, content
// hash, and timestamp. The previous hash contributes as the empty string for
// the genesis node.
func computeRecordHash(previousHash *string, dataHash string, timestamp time.Time) string {
	prev := ""
	if previousHash != nil {
		prev = *previousHash
	}
	return HashString(prev + dataHash + hashTimestamp(timestamp))
}
