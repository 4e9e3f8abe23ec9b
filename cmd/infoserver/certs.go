package main

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/cli"
	securitytls "seleniumrobot/infoserver/pkg/security/tls"
)

var certsFlags struct {
	certFile string
	keyFile  string
}

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Inspect TLS certificates",
}

var certsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configured certificate and key",
	Long: `Load the TLS certificate and key the server would use and report the
subject, names and expiry. Fails when the pair does not match or the
certificate is expired or not yet valid.

Without flags the files come from security.tls in the configuration.

Examples:
  infoserver certs check --config config.yaml
  infoserver certs check --cert server.crt --key server.key`,
	RunE: runCertsCheck,
}

func init() {
	rootCmd.AddCommand(certsCmd)
	certsCmd.AddCommand(certsCheckCmd)

	certsCheckCmd.Flags().StringVar(&certsFlags.certFile, "cert", "", "certificate file (overrides security.tls.cert_file)")
	certsCheckCmd.Flags().StringVar(&certsFlags.keyFile, "key", "", "private key file (overrides security.tls.key_file)")
}

type certReport struct {
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	DNSNames     []string  `json:"dns_names"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	DaysLeft     int       `json:"days_left"`
	ExpiringSoon bool      `json:"expiring_soon"`
}

func (r certReport) Fields() []cli.Field {
	return []cli.Field{
		{Label: "Subject", Value: r.Subject},
		{Label: "Issuer", Value: r.Issuer},
		{Label: "DNS names", Value: strings.Join(r.DNSNames, ", ")},
		{Label: "Not before", Value: r.NotBefore.Format(time.RFC3339)},
		{Label: "Not after", Value: r.NotAfter.Format(time.RFC3339)},
		{Label: "Days left", Value: r.DaysLeft},
		{Label: "Expiring soon", Value: r.ExpiringSoon},
	}
}

func runCertsCheck(cmd *cobra.Command, args []string) error {
	certFile, keyFile := certsFlags.certFile, certsFlags.keyFile
	if certFile == "" || keyFile == "" {
		holder, err := loadHolder()
		if err != nil {
			return err
		}
		tlsCfg := holder.Get().Security.TLS
		if certFile == "" {
			certFile = tlsCfg.CertFile
		}
		if keyFile == "" {
			keyFile = tlsCfg.KeyFile
		}
	}
	if certFile == "" || keyFile == "" {
		return cli.NewCommandError("certs check", fmt.Errorf("no certificate configured: set security.tls or pass --cert and --key"))
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return cli.NewCommandError("certs check", err)
	}
	now := time.Now()
	if err := securitytls.ValidateCertificate(&cert, now); err != nil {
		return cli.NewCommandError("certs check", err)
	}
	leaf, err := securitytls.Leaf(&cert)
	if err != nil {
		return cli.NewCommandError("certs check", err)
	}

	return printResult(cmd, certReport{
		Subject:      leaf.Subject.String(),
		Issuer:       leaf.Issuer.String(),
		DNSNames:     leaf.DNSNames,
		NotBefore:    leaf.NotBefore,
		NotAfter:     leaf.NotAfter,
		DaysLeft:     int(leaf.NotAfter.Sub(now).Hours() / 24),
		ExpiringSoon: securitytls.ExpiresWithin(leaf, now, securitytls.ExpiryWarning),
	})
}
