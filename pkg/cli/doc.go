/*
Package cli holds the helpers shared by the infoserver subcommands.

Command results that implement Reporter print as aligned fields in text
mode and as JSON with --output json:

	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

Errors returned by commands map to exit codes with ExitCode: configuration
problems exit with 2, every other failure with 1.

SignalContext gives commands a context cancelled on SIGINT or SIGTERM.
*/
package cli
