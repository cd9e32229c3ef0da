package ledger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit_chain.json")
	store, err := NewFileStore(path, "test_chain")
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}
	return store, path
}

func TestFileStore_InitializesEmptyChainFile(t *testing.T) {
	_, path := newTestFileStore(t)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading chain file: %v", err)
	}

	var file struct {
		ChainID string            `json:"chain_id"`
		Chain   []json.RawMessage `json:"chain"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("parsing chain file: %v", err)
	}

	if file.ChainID != "test_chain" {
		t.Errorf("chain_id = %q, want %q", file.ChainID, "test_chain")
	}
	if len(file.Chain) != 0 {
		t.Errorf("new chain file has %d nodes, want 0", len(file.Chain))
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, path := newTestFileStore(t)

	l, err := New(store)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}
	original := l.Nodes()

	// Reload through a fresh store instance, as a restart would.
	store2, err := NewFileStore(path, "")
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	reloaded, err := store2.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(reloaded) != len(original) {
		t.Fatalf("reloaded %d nodes, want %d", len(reloaded), len(original))
	}
	for i := range original {
		if reloaded[i].EvidenceID != original[i].EvidenceID {
			t.Errorf("node %d: evidence_id = %q, want %q", i, reloaded[i].EvidenceID, original[i].EvidenceID)
		}
		if !bytes.Equal(reloaded[i].EvidenceData, original[i].EvidenceData) {
			t.Errorf("node %d: evidence_data not byte-identical after round trip", i)
		}
		if reloaded[i].DataHash != original[i].DataHash {
			t.Errorf("node %d: data_hash changed across round trip", i)
		}
		if reloaded[i].RecordHash != original[i].RecordHash {
			t.Errorf("node %d: record_hash changed across round trip", i)
		}
		if reloaded[i].SequenceNumber != original[i].SequenceNumber {
			t.Errorf("node %d: sequence_number changed across round trip", i)
		}
	}

	// A ledger rebuilt from the reloaded snapshot must verify clean.
	l2, err := New(store2)
	if err != nil {
		t.Fatalf("rebuilding ledger: %v", err)
	}
	if result := l2.Verify(); !result.Valid {
		t.Errorf("reloaded chain invalid: %+v", result.Errors)
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	store, path := newTestFileStore(t)

	l, err := New(store)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading chain dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("leftover temp file: %s", entry.Name())
		}
	}
}

// mutateChainFile rewrites the persisted chain document through fn.
func mutateChainFile(t *testing.T, path string, fn func(file map[string]any)) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading chain file: %v", err)
	}
	var file map[string]any
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("parsing chain file: %v", err)
	}

	fn(file)

	out, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("serializing tampered chain: %v", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("writing tampered chain: %v", err)
	}
}

func TestFileStore_TamperedEvidenceDataIsDetected(t *testing.T) {
	store, path := newTestFileStore(t)

	l, err := New(store)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	// Edit node 2's evidence content directly in the persisted file.
	mutateChainFile(t, path, func(file map[string]any) {
		chain := file["chain"].([]any)
		node := chain[2].(map[string]any)
		data := node["evidence_data"].(map[string]any)
		data["detection"].(map[string]any)["source_id"] = "txn-FORGED"
	})

	store2, err := NewFileStore(path, "")
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	l2, err := New(store2)
	if err != nil {
		t.Fatalf("reloading ledger: %v", err)
	}

	result := l2.Verify()
	if result.Valid {
		t.Fatal("Verify() reported valid chain after on-disk tampering")
	}

	var tampered []Issue
	for _, issue := range result.Errors {
		if issue.SequenceNumber == 2 && issue.Kind == IssueDataHashMismatch {
			tampered = append(tampered, issue)
			continue
		}
		t.Errorf("unexpected issue outside tampered node: %+v", issue)
	}
	if len(tampered) != 1 {
		t.Errorf("got %d data_hash_mismatch findings at node 2, want 1", len(tampered))
	}
}

func TestFileStore_ReorderedNodesAreDetected(t *testing.T) {
	store, path := newTestFileStore(t)

	l, err := New(store)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := l.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	// Swap two adjacent nodes in the persisted file.
	mutateChainFile(t, path, func(file map[string]any) {
		chain := file["chain"].([]any)
		chain[1], chain[2] = chain[2], chain[1]
	})

	store2, err := NewFileStore(path, "")
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	l2, err := New(store2)
	if err != nil {
		t.Fatalf("reloading ledger: %v", err)
	}

	result := l2.Verify()
	if result.Valid {
		t.Fatal("Verify() reported valid chain after reordering")
	}

	kinds := make(map[IssueKind]int)
	affected := make(map[int]bool)
	for _, issue := range result.Errors {
		kinds[issue.Kind]++
		affected[issue.SequenceNumber] = true
	}

	// Reordering must surface as broken linkage at the swapped positions,
	// plus sequence numbers that no longer match their positions.
	if kinds[IssuePreviousHashMismatch] == 0 {
		t.Errorf("no previous_hash_mismatch reported, kinds: %+v", kinds)
	}
	if kinds[IssueSequenceGap] == 0 {
		t.Errorf("no sequence_gap reported, kinds: %+v", kinds)
	}
	if affected[0] || affected[4] {
		t.Errorf("issues reported outside the swapped region: %+v", result.Errors)
	}
}
