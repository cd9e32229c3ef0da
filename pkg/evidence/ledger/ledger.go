package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"veritas-hq/quaestor/pkg/evidence"
)

// ChainStore persists the full chain snapshot. Save must be atomic: a crash
// mid-write never leaves a truncated chain on disk.
type ChainStore interface {
	// Load reads the persisted chain and returns its nodes in order. It
	// does not verify integrity; verification is an explicit operation.
	Load() ([]*ChainNode, error)

	// Save writes the entire chain snapshot durably.
	Save(nodes []*ChainNode) error
}

// Ledger is the append-only, hash-chained sequence of evidence records.
//
// Appends are serialized under a single-writer lock held across the whole
// read-tail, compute, persist, commit span: two concurrent appends can never
// assign the same sequence number or chain against a stale tail. Reads run
// concurrently with each other and never observe a half-written append.
type Ledger struct {
	mu     sync.RWMutex
	nodes  []*ChainNode
	byID   map[string]*ChainNode
	store  ChainStore
	logger *slog.Logger
}

// New creates a ledger backed by the given chain store and loads any
// previously persisted nodes. Load does not verify the chain; callers that
// want startup verification run Verify explicitly.
func New(store ChainStore) (*Ledger, error) {
	l := &Ledger{
		byID:   make(map[string]*ChainNode),
		store:  store,
		logger: slog.Default().With("component", "evidence.ledger"),
	}

	nodes, err := store.Load()
	if err != nil {
		return nil, evidence.NewStorageError("chainstore", "load", err)
	}
	l.nodes = nodes
	for _, node := range nodes {
		l.byID[node.EvidenceID] = node
	}

	l.logger.Info("ledger loaded", "nodes", len(nodes))
	return l, nil
}

// Append serializes the record canonically, links it to the current tail,
// persists the extended chain, and commits the new node. On persistence
// failure the append fails atomically: the in-memory chain is unchanged and
// the on-disk chain still holds the previous snapshot.
func (l *Ledger) Append(record *evidence.EvidenceRecord) (*ChainNode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[record.EvidenceID]; exists {
		return nil, fmt.Errorf("evidence %s already appended", record.EvidenceID)
	}

	canonical, err := CanonicalMarshal(record)
	if err != nil {
		return nil, fmt.Errorf("serialize evidence %s: %w", record.EvidenceID, err)
	}

	var previousHash *string
	if n := len(l.nodes); n > 0 {
		h := l.nodes[n-1].RecordHash
		previousHash = &h
	}

	node := &ChainNode{
		EvidenceID:     record.EvidenceID,
		PreviousHash:   previousHash,
		Timestamp:      record.Timestamp.UTC(),
		EvidenceData:   canonical,
		DataHash:       HashContent(canonical),
		SequenceNumber: len(l.nodes),
	}
	node.RecordHash = computeRecordHash(node.PreviousHash, node.DataHash, node.Timestamp)

	// Persist before commit so memory and disk never diverge.
	if err := l.store.Save(append(l.nodes, node)); err != nil {
		return nil, evidence.NewStorageError("chainstore", "save", err)
	}

	l.nodes = append(l.nodes, node)
	l.byID[node.EvidenceID] = node

	l.logger.Info("evidence appended to chain",
		"evidence_id", node.EvidenceID,
		"sequence", node.SequenceNumber,
		"record_hash", node.RecordHash,
	)
	return node, nil
}

// Verify walks the whole chain and reports every integrity issue found. It
// never short-circuits and never mutates the chain: findings are surfaced
// for forensic review, not auto-corrected.
func (l *Ledger) Verify() *VerificationResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return VerifyNodes(l.nodes)
}

// Len returns the number of nodes in the chain.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.nodes)
}

// Latest returns the tail node, or nil for an empty ledger.
func (l *Ledger) Latest() *ChainNode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.nodes) == 0 {
		return nil
	}
	return l.nodes[len(l.nodes)-1]
}

// NodeAt returns the node with the given sequence number.
func (l *Ledger) NodeAt(sequence int) (*ChainNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if sequence < 0 || sequence >= len(l.nodes) {
		return nil, fmt.Errorf("sequence %d out of range [0,%d)", sequence, len(l.nodes))
	}
	return l.nodes[sequence], nil
}

// NodeByEvidenceID returns the node wrapping the given evidence record.
func (l *Ledger) NodeByEvidenceID(evidenceID string) (*ChainNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	node, ok := l.byID[evidenceID]
	if !ok {
		return nil, evidence.NewNotFoundError(evidenceID)
	}
	return node, nil
}

// NodesInRange returns nodes whose timestamps fall within [start, end],
// in ascending chain order.
func (l *Ledger) NodesInRange(start, end time.Time) []*ChainNode {
	l.mu.RLock()
	defer l.mu.RUnlock()

	nodes := make([]*ChainNode, 0)
	for _, node := range l.nodes {
		if node.Timestamp.Before(start) || node.Timestamp.After(end) {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Nodes returns a snapshot of the full chain in order.
func (l *Ledger) Nodes() []*ChainNode {
	l.mu.RLock()
	defer l.mu.RUnlock()

	nodes := make([]*ChainNode, len(l.nodes))
	copy(nodes, l.nodes)
	return nodes
}
