package export

import (
	"context"
	"encoding/json"
	"io"

	"veritas-hq/quaestor/pkg/evidence"
	"veritas-hq/quaestor/pkg/evidence/ledger"
)

// JSONExporter exports evidence records and chain nodes as JSON.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the records to w as a JSON array.
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	if records == nil {
		records = []*evidence.EvidenceRecord{}
	}
	data, err := e.marshal(records)
	if err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}

// ExportChain writes the chain nodes to w as a JSON array. Nodes carry their
// hashes, so an exported chain can be independently re-verified.
func (e *JSONExporter) ExportChain(ctx context.Context, nodes []*ledger.ChainNode, w io.Writer) error {
	if nodes == nil {
		nodes = []*ledger.ChainNode{}
	}
	data, err := e.marshal(nodes)
	if err != nil {
		return evidence.NewExportError("json", len(nodes), err)
	}
	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(nodes), err)
	}
	return nil
}

// ExportStream writes records arriving on the channel to w as a JSON array,
// one record at a time. Suitable for result sets too large to hold in memory.
func (e *JSONExporter) ExportStream(ctx context.Context, records <-chan *evidence.EvidenceRecord, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return evidence.NewExportError("json", 0, err)
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-records:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return evidence.NewExportError("json", count, err)
				}
				return nil
			}

			if count > 0 {
				if _, err := w.Write([]byte(",")); err != nil {
					return evidence.NewExportError("json", count, err)
				}
			}

			data, err := e.marshal(record)
			if err != nil {
				return evidence.NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return evidence.NewExportError("json", count, err)
			}
			count++
		}
	}
}

func (e *JSONExporter) marshal(v any) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
