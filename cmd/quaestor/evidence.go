package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"veritas-hq/quaestor/pkg/cli"
	"veritas-hq/quaestor/pkg/config"
	"veritas-hq/quaestor/pkg/evidence"
	"veritas-hq/quaestor/pkg/evidence/export"
)

var evidenceFlags struct {
	start     string
	end       string
	eventType string
	tenant    string
	framework string
	limit     int
	offset    int
	format    string
	output    string
	header    bool
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query and export captured evidence",
	Long: `Query and export evidence records for audit and compliance review.

Subcommands:
  query   - Query evidence records with filters
  export  - Export evidence records to JSON or CSV

Examples:
  # Query a time range
  quaestor evidence query --start 2026-08-01T00:00:00Z --end 2026-08-28T00:00:00Z

  # Filter by tenant and event type
  quaestor evidence query --tenant acme --event-type violation_detected

  # Export to CSV for an auditor
  quaestor evidence export --format csv --output evidence.csv`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query evidence records from the configured index with filters.

Examples:
  # Query a time range
  quaestor evidence query --start 2026-08-01T00:00:00Z --end 2026-08-28T00:00:00Z

  # Filter by framework
  quaestor evidence query --framework PCI-DSS --limit 50

  # Machine-readable output
  quaestor evidence query --tenant acme --format json`,
	RunE: runEvidenceQuery,
}

var evidenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export evidence records",
	Long: `Export evidence records matching the filters to JSON or CSV.

Examples:
  # Export everything as JSON to stdout
  quaestor evidence export --format json

  # Export a tenant's records to a CSV file
  quaestor evidence export --tenant acme --format csv --output evidence.csv`,
	RunE: runEvidenceExport,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd)
	evidenceCmd.AddCommand(evidenceExportCmd)

	for _, cmd := range []*cobra.Command{evidenceQueryCmd, evidenceExportCmd} {
		cmd.Flags().StringVar(&evidenceFlags.start, "start", "", "range start (RFC 3339)")
		cmd.Flags().StringVar(&evidenceFlags.end, "end", "", "range end (RFC 3339)")
		cmd.Flags().StringVar(&evidenceFlags.eventType, "event-type", "", "filter by event type")
		cmd.Flags().StringVar(&evidenceFlags.tenant, "tenant", "", "filter by tenant id")
		cmd.Flags().StringVar(&evidenceFlags.framework, "framework", "", "filter by regulatory framework")
		cmd.Flags().IntVar(&evidenceFlags.limit, "limit", 0, "maximum records to return (0 = all)")
		cmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "records to skip")
	}

	evidenceQueryCmd.Flags().StringVarP(&evidenceFlags.format, "format", "f", "text", "output format (text, json)")

	evidenceExportCmd.Flags().StringVarP(&evidenceFlags.format, "format", "f", "json", "export format (json, csv)")
	evidenceExportCmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (defaults to stdout)")
	evidenceExportCmd.Flags().BoolVar(&evidenceFlags.header, "header", true, "include CSV header row")
}

func buildEvidenceQuery() (*evidence.Query, error) {
	query := &evidence.Query{
		EventType: evidence.EventType(evidenceFlags.eventType),
		TenantID:  evidenceFlags.tenant,
		Framework: evidenceFlags.framework,
		Limit:     evidenceFlags.limit,
		Offset:    evidenceFlags.offset,
	}

	if evidenceFlags.eventType != "" && !query.EventType.Valid() {
		return nil, fmt.Errorf("unknown event type %q", evidenceFlags.eventType)
	}

	if evidenceFlags.start != "" {
		t, err := time.Parse(time.RFC3339, evidenceFlags.start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start timestamp %q: %w", evidenceFlags.start, err)
		}
		query.StartTime = &t
	}
	if evidenceFlags.end != "" {
		t, err := time.Parse(time.RFC3339, evidenceFlags.end)
		if err != nil {
			return nil, fmt.Errorf("invalid --end timestamp %q: %w", evidenceFlags.end, err)
		}
		query.EndTime = &t
	}

	return query, nil
}

func queryEvidence(ctx context.Context) ([]*evidence.EvidenceRecord, error) {
	query, err := buildEvidenceQuery()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}

	index, err := openIndex(&cfg.Evidence)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	return index.Query(ctx, query)
}

func runEvidenceQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evidenceFlags.format)
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}

	records, err := queryEvidence(cmd.Context())
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}

	if format == cli.FormatJSON {
		if err := cli.NewFormatter(format).FormatTo(os.Stdout, records); err != nil {
			return cli.NewCommandError("evidence query", err)
		}
		return nil
	}

	table := &cli.Table{Headers: []string{"EVIDENCE ID", "EVENT TYPE", "FRAMEWORK", "CLAUSE", "TENANT", "TIMESTAMP"}}
	for _, record := range records {
		table.AddRow(
			record.EvidenceID,
			string(record.EventType),
			record.Regulation.Framework,
			record.Regulation.Clause,
			record.TenantID(),
			record.Timestamp.UTC().Format(time.RFC3339),
		)
	}
	if err := (&cli.TableFormatter{}).FormatTo(os.Stdout, table); err != nil {
		return cli.NewCommandError("evidence query", err)
	}
	fmt.Printf("\n%d record(s)\n", len(records))
	return nil
}

func runEvidenceExport(cmd *cobra.Command, args []string) error {
	records, err := queryEvidence(cmd.Context())
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}

	var out io.Writer = os.Stdout
	if evidenceFlags.output != "" {
		f, err := os.Create(evidenceFlags.output)
		if err != nil {
			return cli.NewCommandError("evidence export", err)
		}
		defer f.Close()
		out = f
	}

	switch evidenceFlags.format {
	case "json":
		err = export.NewJSONExporter(true).Export(cmd.Context(), records, out)
	case "csv":
		err = export.NewCSVExporter(evidenceFlags.header).Export(cmd.Context(), records, out)
	default:
		err = fmt.Errorf("unknown export format %q (must be json or csv)", evidenceFlags.format)
	}
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}

	if evidenceFlags.output != "" {
		fmt.Printf("Exported %d record(s) to %s\n", len(records), evidenceFlags.output)
	}
	return nil
}
