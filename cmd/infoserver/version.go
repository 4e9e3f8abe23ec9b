package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/cli"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (v versionInfo) Fields() []cli.Field {
	return []cli.Field{
		{Label: "Infoserver", Value: v.Version},
		{Label: "Git Commit", Value: v.GitCommit},
		{Label: "Build Date", Value: v.BuildDate},
		{Label: "Go Version", Value: v.GoVersion},
		{Label: "OS/Arch", Value: v.Platform},
	}
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResult(cmd, currentVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
