package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quaestor",
	Short: "Quaestor - tamper-evident compliance evidence service",
	Long: `Quaestor captures compliance events as immutable evidence records and
chains them into a SHA-256 hash chain so any later modification, deletion,
or reordering is detectable.

It provides:
  - Evidence capture for violations, remediations, and reasoning trails
  - An append-only, hash-chained audit ledger with atomic persistence
  - Scheduled and on-demand chain verification with checkpoint history
  - A queryable evidence index and JSON/CSV export for auditors`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
