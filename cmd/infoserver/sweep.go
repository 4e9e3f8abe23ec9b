package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/cli"
	"seleniumrobot/infoserver/pkg/elementinfo/retention"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stale element-info records once",
	Long: `Delete every element-info record whose last update is older than the
retention window, across all applications, then exit.

This is the sweep the list endpoints run on every request, usable from an
external scheduler when the server is idle.

Examples:
  infoserver sweep --config config.yaml
  infoserver sweep --config config.yaml --output json`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

// sweepReport is the printed outcome of a sweep.
type sweepReport struct {
	Window   string `json:"window"`
	Scanned  int    `json:"scanned"`
	Deleted  int    `json:"deleted"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
}

func (r sweepReport) Fields() []cli.Field {
	return []cli.Field{
		{Label: "Retention window", Value: r.Window},
		{Label: "Scanned", Value: r.Scanned},
		{Label: "Deleted", Value: r.Deleted},
		{Label: "Failed deletes", Value: r.Failed},
		{Label: "Duration", Value: r.Duration},
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	holder, err := loadHolder()
	if err != nil {
		return err
	}
	cfg := holder.Get()
	if _, err := setupLogging(cfg, os.Stderr); err != nil {
		return err
	}
	if cfg.Storage.Driver == "memory" {
		return cli.NewCommandError("sweep", errMemoryStore)
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	st, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}
	defer st.Close()

	sweeper := retention.NewSweeper(st.elements, cfg.ElementInfo.Retention.Window)
	start := time.Now()
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}

	return printResult(cmd, sweepReport{
		Window:   sweeper.Window().String(),
		Scanned:  result.Scanned,
		Deleted:  result.Deleted,
		Failed:   result.Failed,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	})
}
