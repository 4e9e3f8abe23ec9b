package config

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Holder owns the live configuration of a running process. Request handlers
// call Get on every request so a reload takes effect without a restart.
// The zero value is not usable; build one with NewHolder.
type Holder struct {
	path    string
	current atomic.Pointer[Config]
}

// NewHolder returns a holder serving cfg. path is the file Reload reads from;
// it may be empty when the configuration did not come from a file.
func NewHolder(cfg *Config, path string) *Holder {
	h := &Holder{path: path}
	h.current.Store(cfg)
	return h
}

// LoadHolder loads the configuration at path with environment overrides and
// wraps it in a holder.
func LoadHolder(path string) (*Holder, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	return NewHolder(cfg, path), nil
}

// Get returns the current configuration. Callers must treat it as read-only.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// Set replaces the current configuration.
func (h *Holder) Set(cfg *Config) {
	h.current.Store(cfg)
}

// Path returns the file the holder reloads from.
func (h *Holder) Path() string {
	return h.path
}

// SecurityEnabled reports the current value of security.api_enabled.
func (h *Holder) SecurityEnabled() bool {
	cfg := h.Get()
	if cfg == nil {
		return true
	}
	return cfg.Security.SecurityEnabled()
}

// Reload re-reads the configuration file. The current configuration is kept
// when loading or validation fails.
func (h *Holder) Reload() error {
	if h.path == "" {
		return errors.New("configuration was not loaded from a file")
	}
	cfg, err := LoadConfigWithEnvOverrides(h.path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	h.Set(cfg)
	return nil
}
