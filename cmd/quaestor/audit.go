package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"veritas-hq/quaestor/pkg/cli"
	"veritas-hq/quaestor/pkg/config"
	"veritas-hq/quaestor/pkg/evidence/export"
	"veritas-hq/quaestor/pkg/evidence/ledger"
)

var auditFlags struct {
	chainPath string
	output    string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Work with the audit chain",
	Long: `Inspect and export the hash-chained audit trail.

Subcommands:
  export  - Export the full chain with hashes for independent re-verification`,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit chain",
	Long: `Export the full audit chain as JSON.

Exported nodes carry their data and record hashes, so a third party can
re-verify the chain without access to this service.

Examples:
  # Export the configured chain to stdout
  quaestor audit export

  # Export an explicit chain file for an auditor
  quaestor audit export --chain /var/lib/quaestor/audit_chain.json --output chain.json`,
	RunE: runAuditExport,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditExportCmd)

	auditExportCmd.Flags().StringVar(&auditFlags.chainPath, "chain", "", "chain file path (defaults to the configured path)")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (defaults to stdout)")
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	chainPath := auditFlags.chainPath
	if chainPath == "" {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		chainPath = cfg.Evidence.ChainPath
	}

	if _, err := os.Stat(chainPath); err != nil {
		return cli.NewCommandError("audit export", fmt.Errorf("chain file %q: %w", chainPath, err))
	}

	store, err := ledger.NewFileStore(chainPath, "")
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}
	nodes, err := store.Load()
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}

	var out io.Writer = os.Stdout
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.NewJSONExporter(true).ExportChain(cmd.Context(), nodes, out); err != nil {
		return cli.NewCommandError("audit export", err)
	}

	if auditFlags.output != "" {
		fmt.Printf("Exported %d node(s) to %s\n", len(nodes), auditFlags.output)
	}
	return nil
}
