package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"veritas-hq/quaestor/pkg/cli"
	"veritas-hq/quaestor/pkg/config"
	"veritas-hq/quaestor/pkg/evidence/ledger"
)

var verifyFlags struct {
	chainPath string
	format    string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit chain offline",
	Long: `Verify the integrity of a persisted audit chain file.

Every node is checked: content hash against the stored evidence, record
hash against the node's fields, previous-hash linkage against the
predecessor, and sequence continuity. All findings are reported; the chain
is never modified.

The command exits non-zero if the chain fails verification.

Examples:
  # Verify the chain from the configured path
  quaestor verify

  # Verify an explicit chain file
  quaestor verify --chain /var/lib/quaestor/audit_chain.json

  # Machine-readable result
  quaestor verify --format json`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFlags.chainPath, "chain", "", "chain file path (defaults to the configured path)")
	verifyCmd.Flags().StringVarP(&verifyFlags.format, "format", "f", "text", "output format (text, json)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(verifyFlags.format)
	if err != nil {
		return cli.NewCommandError("verify", err)
	}

	chainPath := verifyFlags.chainPath
	if chainPath == "" {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return cli.NewCommandError("verify", err)
		}
		chainPath = cfg.Evidence.ChainPath
	}

	if _, err := os.Stat(chainPath); err != nil {
		return cli.NewCommandError("verify", fmt.Errorf("chain file %q: %w", chainPath, err))
	}

	store, err := ledger.NewFileStore(chainPath, "")
	if err != nil {
		return cli.NewCommandError("verify", err)
	}
	nodes, err := store.Load()
	if err != nil {
		return cli.NewCommandError("verify", err)
	}

	result := ledger.VerifyNodes(nodes)

	if format == cli.FormatJSON {
		if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
			return cli.NewCommandError("verify", err)
		}
	} else {
		printVerificationResult(result, chainPath)
	}

	if !result.Valid {
		return cli.NewCommandError("verify",
			fmt.Errorf("chain failed verification with %d issue(s)", len(result.Errors)))
	}
	return nil
}

func printVerificationResult(result *ledger.VerificationResult, chainPath string) {
	if result.Valid {
		fmt.Printf("Chain %s is valid (%d nodes)\n", chainPath, result.TotalNodes)
		return
	}

	fmt.Printf("Chain %s is INVALID (%d nodes, %d issues)\n", chainPath, result.TotalNodes, len(result.Errors))

	table := &cli.Table{Headers: []string{"SEQ", "EVIDENCE ID", "ISSUE", "EXPECTED", "ACTUAL"}}
	for _, issue := range result.Errors {
		table.AddRow(
			fmt.Sprintf("%d", issue.SequenceNumber),
			issue.EvidenceID,
			string(issue.Kind),
			truncate(issue.Expected, 20),
			truncate(issue.Actual, 20),
		)
	}
	_ = (&cli.TableFormatter{}).FormatTo(os.Stdout, table)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
