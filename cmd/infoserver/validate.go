package main

import (
	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/cli"
	"seleniumrobot/infoserver/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file with defaults and INFOSERVER_* environment
overrides applied, and report every invalid field.

Exits with status 2 when the configuration is invalid.

Examples:
  infoserver validate --config config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// configSummary is the printed outcome of a successful validation.
type configSummary struct {
	Config          string `json:"config"`
	ListenAddress   string `json:"listen_address"`
	Storage         string `json:"storage"`
	RetentionWindow string `json:"retention_window"`
	SweepSchedule   string `json:"sweep_schedule,omitempty"`
	SecurityEnabled bool   `json:"security_enabled"`
	APIKeys         int    `json:"api_keys"`
	JWT             bool   `json:"jwt"`
	TLS             bool   `json:"tls"`
}

func (s configSummary) Fields() []cli.Field {
	return []cli.Field{
		{Label: "Config", Value: s.Config},
		{Label: "Listen address", Value: s.ListenAddress},
		{Label: "Storage", Value: s.Storage},
		{Label: "Retention window", Value: s.RetentionWindow},
		{Label: "Sweep schedule", Value: s.SweepSchedule},
		{Label: "Security enabled", Value: s.SecurityEnabled},
		{Label: "API keys", Value: s.APIKeys},
		{Label: "JWT", Value: s.JWT},
		{Label: "TLS", Value: s.TLS},
	}
}

func summarize(path string, cfg *config.Config) configSummary {
	if path == "" {
		path = "(defaults)"
	}
	return configSummary{
		Config:          path,
		ListenAddress:   cfg.Server.ListenAddress,
		Storage:         cfg.Storage.Driver,
		RetentionWindow: cfg.ElementInfo.Retention.Window.String(),
		SweepSchedule:   cfg.ElementInfo.Retention.Schedule,
		SecurityEnabled: cfg.Security.SecurityEnabled(),
		APIKeys:         len(cfg.Security.Authentication.APIKeys),
		JWT:             cfg.Security.Authentication.JWT.Enabled,
		TLS:             cfg.Security.TLS.Enabled,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	holder, err := loadHolder()
	if err != nil {
		return err
	}
	return printResult(cmd, summarize(cfgFile, holder.Get()))
}
