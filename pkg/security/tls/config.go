package tls

import (
	"crypto/tls"

	"seleniumrobot/infoserver/pkg/config"
)

// ServerConfig loads the configured key pair and returns a tls.Config
// serving it through a reloader. It returns nil, nil when TLS is disabled.
func ServerConfig(cfg config.TLSConfig) (*tls.Config, *CertificateReloader, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	reloader := NewCertificateReloader(cfg.CertFile, cfg.KeyFile, 0)
	if err := reloader.Load(); err != nil {
		return nil, nil, err
	}

	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: reloader.GetCertificate,
	}, reloader, nil
}
