package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) accepted invalid format", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"valid": true, "total_nodes": 5}

	if err := NewFormatter(FormatJSON).FormatTo(&buf, data); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["valid"] != true {
		t.Errorf("decoded valid = %v", decoded["valid"])
	}
}

func TestTableFormatter(t *testing.T) {
	table := &Table{Headers: []string{"EVIDENCE ID", "EVENT TYPE"}}
	table.AddRow("EVID-1700000000-AB12CD", "violation_detected")
	table.AddRow("EVID-1700000001-EF34AB", "remediation_applied")

	var buf bytes.Buffer
	if err := NewFormatter(FormatText).FormatTo(&buf, table); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "EVIDENCE ID") {
		t.Errorf("header line missing: %q", lines[0])
	}
	if !strings.Contains(lines[1], "violation_detected") {
		t.Errorf("row missing event type: %q", lines[1])
	}
}
