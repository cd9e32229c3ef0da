/*
Package cli provides command-line utilities for the quaestor command.

Output Formatting:

Command results render as aligned text tables or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
*/
package cli
