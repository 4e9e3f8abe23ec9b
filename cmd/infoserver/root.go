package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/cli"
	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	output  string
)

var rootCmd = &cobra.Command{
	Use:   "infoserver",
	Short: "SeleniumRobot info server",
	Long: `Infoserver stores what SeleniumRobot test runs learn about the applications
they test and hands them their configuration:

  - Element info: fingerprints of UI elements, kept for 30 days
  - Variables: per application/version/environment/test values, with
    reservation of shared accounts and masking of protected values
  - Commons: the applications, versions, environments and test cases both
    areas refer to`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and INFOSERVER_* variables when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json")
}

// loadHolder reads the configuration named by --config.
func loadHolder() (*config.Holder, error) {
	holder, err := config.LoadHolder(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return holder, nil
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.Setup(logCfg, w)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return logger, nil
}

// printResult writes a command result in the --output format.
func printResult(cmd *cobra.Command, result any) error {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}
