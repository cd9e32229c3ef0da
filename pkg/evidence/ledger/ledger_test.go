package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"veritas-hq/quaestor/pkg/evidence"
)

// testRecord builds an evidence record with a deterministic id and timestamp.
func testRecord(i int) *evidence.EvidenceRecord {
	return &evidence.EvidenceRecord{
		EvidenceID: fmt.Sprintf("EVID-1700000000-%06d", i),
		EventType:  evidence.EventViolationDetected,
		Regulation: evidence.Regulation{
			Framework:   "PCI-DSS",
			Clause:      "3.4",
			Requirement: "PAN must not appear in plaintext",
		},
		Detection: evidence.Detection{
			DetectedBy:     "MonitoringAgent",
			SourceType:     "transaction",
			SourceID:       fmt.Sprintf("txn-%d", i),
			MatchedPattern: "4[0-9]{12}(?:[0-9]{3})?",
		},
		Metadata:  map[string]string{"tenant_id": "acme"},
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
	}
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := New(NewMemoryStore())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return l
}

func TestLedger_AppendAssignsSequenceNumbers(t *testing.T) {
	l := newTestLedger(t)

	const n = 10
	for i := 0; i < n; i++ {
		node, err := l.Append(testRecord(i))
		if err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
		if node.SequenceNumber != i {
			t.Errorf("node %d: sequence = %d, want %d", i, node.SequenceNumber, i)
		}
	}

	if l.Len() != n {
		t.Fatalf("Len() = %d, want %d", l.Len(), n)
	}
}

func TestLedger_GenesisHasNilPreviousHash(t *testing.T) {
	l := newTestLedger(t)

	node, err := l.Append(testRecord(0))
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	if node.PreviousHash != nil {
		t.Errorf("genesis previous_hash = %q, want nil", *node.PreviousHash)
	}
}

func TestLedger_PairwiseChaining(t *testing.T) {
	l := newTestLedger(t)

	const n = 50
	for i := 0; i < n; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	nodes := l.Nodes()
	for i := 1; i < n; i++ {
		if nodes[i].PreviousHash == nil {
			t.Fatalf("node %d: previous_hash is nil", i)
		}
		if *nodes[i].PreviousHash != nodes[i-1].RecordHash {
			t.Errorf("node %d: previous_hash = %s, want %s",
				i, *nodes[i].PreviousHash, nodes[i-1].RecordHash)
		}
	}
}

func TestLedger_AppendRejectsDuplicateEvidenceID(t *testing.T) {
	l := newTestLedger(t)

	rec := testRecord(0)
	if _, err := l.Append(rec); err != nil {
		t.Fatalf("first Append() failed: %v", err)
	}
	if _, err := l.Append(rec); err == nil {
		t.Error("second Append() of same evidence_id succeeded, want error")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d after rejected append, want 1", l.Len())
	}
}

func TestLedger_VerifyEmptyAndGenesisOnly(t *testing.T) {
	l := newTestLedger(t)

	result := l.Verify()
	if !result.Valid {
		t.Errorf("empty ledger: Valid = false, errors: %+v", result.Errors)
	}
	if result.TotalNodes != 0 {
		t.Errorf("empty ledger: TotalNodes = %d, want 0", result.TotalNodes)
	}

	if _, err := l.Append(testRecord(0)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	result = l.Verify()
	if !result.Valid {
		t.Errorf("genesis-only ledger: Valid = false, errors: %+v", result.Errors)
	}
	if result.TotalNodes != 1 {
		t.Errorf("genesis-only ledger: TotalNodes = %d, want 1", result.TotalNodes)
	}
}

func TestLedger_VerifyIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 5; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	first := l.Verify()
	second := l.Verify()

	if first.Valid != second.Valid || first.TotalNodes != second.TotalNodes {
		t.Errorf("verify results differ: %+v vs %+v", first, second)
	}
	if len(first.Errors) != len(second.Errors) {
		t.Errorf("error counts differ: %d vs %d", len(first.Errors), len(second.Errors))
	}
}

func TestLedger_VerifyDetectsTamperedNode(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 5; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	// Tamper with one node's content directly.
	node, err := l.NodeAt(2)
	if err != nil {
		t.Fatalf("NodeAt(2) failed: %v", err)
	}
	node.EvidenceData = []byte(`{"evidence_id":"EVID-FORGED","event_type":"violation_detected"}`)

	result := l.Verify()
	if result.Valid {
		t.Fatal("Verify() reported valid chain after tampering")
	}

	found := false
	for _, issue := range result.Errors {
		if issue.Kind == IssueDataHashMismatch && issue.SequenceNumber == 2 {
			found = true
		}
		if issue.SequenceNumber != 2 {
			t.Errorf("unexpected issue at sequence %d: %+v", issue.SequenceNumber, issue)
		}
	}
	if !found {
		t.Errorf("no data_hash_mismatch at sequence 2, got: %+v", result.Errors)
	}
}

func TestLedger_Getters(t *testing.T) {
	l := newTestLedger(t)

	if l.Latest() != nil {
		t.Error("Latest() on empty ledger != nil")
	}
	if _, err := l.NodeAt(0); err == nil {
		t.Error("NodeAt(0) on empty ledger succeeded")
	}

	for i := 0; i < 5; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	latest := l.Latest()
	if latest == nil || latest.SequenceNumber != 4 {
		t.Fatalf("Latest() = %+v, want sequence 4", latest)
	}

	node, err := l.NodeAt(3)
	if err != nil {
		t.Fatalf("NodeAt(3) failed: %v", err)
	}
	if node.SequenceNumber != 3 {
		t.Errorf("NodeAt(3).SequenceNumber = %d", node.SequenceNumber)
	}

	byID, err := l.NodeByEvidenceID(testRecord(2).EvidenceID)
	if err != nil {
		t.Fatalf("NodeByEvidenceID() failed: %v", err)
	}
	if byID.SequenceNumber != 2 {
		t.Errorf("NodeByEvidenceID().SequenceNumber = %d, want 2", byID.SequenceNumber)
	}

	if _, err := l.NodeByEvidenceID("EVID-UNKNOWN"); err == nil {
		t.Error("NodeByEvidenceID(unknown) succeeded, want NotFoundError")
	}

	// Range query: records 1..3 by timestamp.
	start := testRecord(1).Timestamp
	end := testRecord(3).Timestamp
	inRange := l.NodesInRange(start, end)
	if len(inRange) != 3 {
		t.Fatalf("NodesInRange() returned %d nodes, want 3", len(inRange))
	}
	for i, node := range inRange {
		if node.SequenceNumber != i+1 {
			t.Errorf("range node %d: sequence = %d, want %d", i, node.SequenceNumber, i+1)
		}
	}
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	l := newTestLedger(t)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(testRecord(i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Append() failed: %v", err)
	}

	if l.Len() != n {
		t.Fatalf("Len() = %d, want %d", l.Len(), n)
	}

	// Sequence numbers must be exactly 0..n-1 with no duplicates or gaps.
	seen := make(map[int]bool)
	for _, node := range l.Nodes() {
		if seen[node.SequenceNumber] {
			t.Errorf("duplicate sequence number %d", node.SequenceNumber)
		}
		seen[node.SequenceNumber] = true
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			t.Errorf("missing sequence number %d", i)
		}
	}

	if result := l.Verify(); !result.Valid {
		t.Errorf("chain invalid after concurrent appends: %+v", result.Errors)
	}
}

// failingStore fails Save after a configurable number of successes.
type failingStore struct {
	*MemoryStore
	failAfter int
	saves     int
}

func (s *failingStore) Save(nodes []*ChainNode) error {
	s.saves++
	if s.saves > s.failAfter {
		return fmt.Errorf("disk full")
	}
	return s.MemoryStore.Save(nodes)
}

func TestLedger_AppendFailsAtomicallyOnPersistenceError(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failAfter: 2}
	l, err := New(store)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	if _, err := l.Append(testRecord(2)); err == nil {
		t.Fatal("Append() succeeded despite persistence failure")
	}

	// In-memory chain must be unchanged and still valid.
	if l.Len() != 2 {
		t.Errorf("Len() = %d after failed append, want 2", l.Len())
	}
	if result := l.Verify(); !result.Valid {
		t.Errorf("chain invalid after failed append: %+v", result.Errors)
	}

	// Persisted snapshot must match the in-memory chain.
	persisted, err := store.MemoryStore.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted %d nodes after failed append, want 2", len(persisted))
	}
}
