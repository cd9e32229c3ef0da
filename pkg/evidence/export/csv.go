package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"veritas-hq/quaestor/pkg/evidence"
)

// CSVExporter exports evidence records as CSV. Nested structures are
// flattened; optional descriptors land in JSON-valued columns.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes the records to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

// ExportStream writes records arriving on the channel to w in CSV format,
// flushing periodically so long exports make visible progress.
func (e *CSVExporter) ExportStream(ctx context.Context, records <-chan *evidence.EvidenceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-records:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(recordToRow(record)); err != nil {
				return evidence.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
			}
		}
	}
}

func headerRow() []string {
	return []string{
		"evidence_id", "event_type", "timestamp",
		"framework", "clause", "requirement",
		"detected_by", "source_type", "source_id", "matched_pattern",
		"tenant_id",
		"violation_state", "remediation", "reasoning_chain",
		"linkages", "metadata",
	}
}

func recordToRow(record *evidence.EvidenceRecord) []string {
	formatJSON := func(v any) string {
		if v == nil {
			return ""
		}
		data, _ := json.Marshal(v)
		return string(data)
	}

	row := []string{
		record.EvidenceID,
		string(record.EventType),
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.Regulation.Framework,
		record.Regulation.Clause,
		record.Regulation.Requirement,
		record.Detection.DetectedBy,
		record.Detection.SourceType,
		record.Detection.SourceID,
		record.Detection.MatchedPattern,
		record.TenantID(),
		"", "", "", "", "",
	}

	if record.ViolationState != nil {
		row[11] = formatJSON(record.ViolationState)
	}
	if record.Remediation != nil {
		row[12] = formatJSON(record.Remediation)
	}
	if record.ReasoningChain != nil {
		row[13] = formatJSON(record.ReasoningChain)
	}
	if len(record.Linkages) > 0 {
		row[14] = formatJSON(record.Linkages)
	}
	if len(record.Metadata) > 0 {
		row[15] = formatJSON(record.Metadata)
	}

	return row
}
