package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"veritas-hq/quaestor/pkg/evidence"
	"veritas-hq/quaestor/pkg/evidence/ledger"
)

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
			DetectedBy: "MonitoringAgent",
			SourceType: "transaction",
			SourceID:   fmt.Sprintf("txn-%d", i),
		},
		Metadata:  map[string]string{"tenant_id": "acme"},
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
	}
}

func TestJSONExporter_Export(t *testing.T) {
	records := []*evidence.EvidenceRecord{testRecord(0), testRecord(1)}

	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var decoded []*evidence.EvidenceRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d records, want 2", len(decoded))
	}
	if decoded[0].EvidenceID != records[0].EvidenceID {
		t.Errorf("EvidenceID = %q, want %q", decoded[0].EvidenceID, records[0].EvidenceID)
	}
	if decoded[1].TenantID() != "acme" {
		t.Errorf("TenantID = %q, want acme", decoded[1].TenantID())
	}
}

func TestJSONExporter_ExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if got := buf.String(); got != "[]" {
		t.Errorf("Export(nil) = %q, want []", got)
	}
}

func TestJSONExporter_ExportChainIsReverifiable(t *testing.T) {
	chain, err := ledger.New(ledger.NewMemoryStore())
	if err != nil {
		t.Fatalf("ledger.New() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := chain.Append(testRecord(i)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := NewJSONExporter(true).ExportChain(context.Background(), chain.Nodes(), &buf); err != nil {
		t.Fatalf("ExportChain() failed: %v", err)
	}

	var nodes []*ledger.ChainNode
	if err := json.Unmarshal(buf.Bytes(), &nodes); err != nil {
		t.Fatalf("exported chain is not valid JSON: %v", err)
	}
	if len(nodes) != 5 {
		t.Fatalf("exported %d nodes, want 5", len(nodes))
	}
	result := ledger.VerifyNodes(nodes)
	if !result.Valid {
		t.Errorf("exported chain failed verification: %+v", result.Errors)
	}
}

func TestJSONExporter_ExportStream(t *testing.T) {
	ch := make(chan *evidence.EvidenceRecord, 3)
	for i := 0; i < 3; i++ {
		ch <- testRecord(i)
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewJSONExporter(false).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}

	var decoded []*evidence.EvidenceRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("streamed output is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("decoded %d records, want 3", len(decoded))
	}
}

func TestJSONExporter_ExportStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan *evidence.EvidenceRecord)
	var buf bytes.Buffer
	if err := NewJSONExporter(false).ExportStream(ctx, ch, &buf); err != context.Canceled {
		t.Errorf("ExportStream() = %v, want context.Canceled", err)
	}
}

func TestCSVExporter_Export(t *testing.T) {
	rec := testRecord(0)
	rec.Remediation = &evidence.Remediation{
		Action:    "mask_pan",
		AppliedBy: "RemediationEngine",
		Result:    "applied",
	}
	rec.Linkages = map[string]string{"remediates": "EVID-1700000000-000099"}

	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), []*evidence.EvidenceRecord{rec}, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1 record", len(rows))
	}

	header, row := rows[0], rows[1]
	if len(header) != len(row) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(header))
	}

	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("header missing column %q", name)
		return ""
	}

	if col("evidence_id") != rec.EvidenceID {
		t.Errorf("evidence_id = %q", col("evidence_id"))
	}
	if col("event_type") != "violation_detected" {
		t.Errorf("event_type = %q", col("event_type"))
	}
	if col("tenant_id") != "acme" {
		t.Errorf("tenant_id = %q", col("tenant_id"))
	}
	if !strings.Contains(col("remediation"), "mask_pan") {
		t.Errorf("remediation column = %q", col("remediation"))
	}
	if !strings.Contains(col("linkages"), "remediates") {
		t.Errorf("linkages column = %q", col("linkages"))
	}
	if col("violation_state") != "" {
		t.Errorf("violation_state = %q, want empty for unset descriptor", col("violation_state"))
	}
}

func TestCSVExporter_ExportWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	records := []*evidence.EvidenceRecord{testRecord(0), testRecord(1)}
	if err := NewCSVExporter(false).Export(context.Background(), records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2 data rows", len(rows))
	}
}

func TestCSVExporter_ExportStream(t *testing.T) {
	ch := make(chan *evidence.EvidenceRecord, 5)
	for i := 0; i < 5; i++ {
		ch <- testRecord(i)
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewCSVExporter(true).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("streamed output is not valid CSV: %v", err)
	}
	if len(rows) != 6 {
		t.Errorf("got %d rows, want header + 5 records", len(rows))
	}
}
