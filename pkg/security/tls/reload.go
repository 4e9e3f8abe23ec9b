package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultReloadInterval is how often the certificate files are checked.
const DefaultReloadInterval = 5 * time.Minute

// CertificateReloader serves the server certificate and swaps it when the
// files change on disk, so a renewed certificate is picked up without a
// restart.
type CertificateReloader struct {
	certFile string
	keyFile  string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	cert    *tls.Certificate
	modTime time.Time
}

// NewCertificateReloader creates a reloader. A zero interval uses
// DefaultReloadInterval.
func NewCertificateReloader(certFile, keyFile string, interval time.Duration) *CertificateReloader {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	return &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		interval: interval,
		logger:   slog.Default().With("component", "tls"),
		now:      time.Now,
	}
}

// Load reads the key pair. It fails on unreadable, mismatched or
// expired files and leaves the current certificate in place.
func (r *CertificateReloader) Load() error {
	modTime, err := r.latestModTime()
	if err != nil {
		return err
	}

	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}
	if err := ValidateCertificate(&cert, r.now()); err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.modTime = modTime
	r.mu.Unlock()

	r.logLoaded(&cert)
	return nil
}

// Run checks the files every interval until ctx is cancelled. Failed
// reloads are logged and the previous certificate keeps being served.
func (r *CertificateReloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.changed() {
				continue
			}
			if err := r.Load(); err != nil {
				r.logger.Error("Certificate reload failed",
					"cert_file", r.certFile,
					"error", err,
				)
			}
		}
	}
}

// Certificate returns the certificate currently served.
func (r *CertificateReloader) Certificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertificateReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert := r.Certificate()
	if cert == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return cert, nil
}

func (r *CertificateReloader) changed() bool {
	modTime, err := r.latestModTime()
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return modTime.After(r.modTime)
}

func (r *CertificateReloader) latestModTime() (time.Time, error) {
	var latest time.Time
	for _, path := range []string{r.certFile, r.keyFile} {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest, nil
}

func (r *CertificateReloader) logLoaded(cert *tls.Certificate) {
	leaf, err := Leaf(cert)
	if err != nil {
		return
	}
	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if ExpiresWithin(leaf, r.now(), ExpiryWarning) {
		r.logger.Warn("Certificate expiring soon", attrs...)
		return
	}
	r.logger.Info("Certificate loaded", attrs...)
}
