package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/cli"
	"seleniumrobot/infoserver/pkg/security/auth"
)

var tokenFlags struct {
	subject      string
	superuser    bool
	capabilities []string
	ttl          time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token",
	Long: `Sign a JWT with security.authentication.jwt.secret for use as
"Authorization: Bearer <token>".

Capabilities are written <area>.<action> (variable.add, elementinfo.delete),
variable.see_protected to read protected values, or
application.view.<name> when security.restrict_to_application is on.

Examples:
  infoserver token --subject robot --capability variable.add --capability variable.change
  infoserver token --subject ci --capability application.view.myapp --ttl 720h`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "", "principal name (required)")
	tokenCmd.Flags().BoolVar(&tokenFlags.superuser, "superuser", false, "grant every capability")
	tokenCmd.Flags().StringSliceVar(&tokenFlags.capabilities, "capability", nil, "capability to grant (repeatable)")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("subject")
}

func runToken(cmd *cobra.Command, args []string) error {
	holder, err := loadHolder()
	if err != nil {
		return err
	}
	jwtCfg := holder.Get().Security.Authentication.JWT
	if !jwtCfg.Enabled {
		return cli.NewConfigError(cfgFile, errors.New("security.authentication.jwt.enabled is false"))
	}
	if tokenFlags.ttl <= 0 {
		return cli.NewCommandError("token", fmt.Errorf("ttl must be positive, got %s", tokenFlags.ttl))
	}

	token, err := auth.IssueToken(jwtCfg, tokenFlags.subject, tokenFlags.superuser, tokenFlags.capabilities, tokenFlags.ttl)
	if err != nil {
		return cli.NewCommandError("token", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
