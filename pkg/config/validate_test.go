package config

import (
	"strings"
	"testing"
	"time"
)

func hasField(errs []FieldError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(NewDefaultConfig()); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.ListenAddress = ""
	cfg.Storage.Driver = "oracle"
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(validationErr.Errors), validationErr.Errors)
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Sections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "listen address without port",
			mutate:     func(c *Config) { c.Server.ListenAddress = "localhost" },
			errorField: "server.listen_address",
		},
		{
			name:       "negative read timeout",
			mutate:     func(c *Config) { c.Server.ReadTimeout = -time.Second },
			errorField: "server.read_timeout",
		},
		{
			name:       "excessive max header bytes",
			mutate:     func(c *Config) { c.Server.MaxHeaderBytes = 20 * 1024 * 1024 },
			errorField: "server.max_header_bytes",
		},
		{
			name:       "unknown driver",
			mutate:     func(c *Config) { c.Storage.Driver = "mysql" },
			errorField: "storage.driver",
		},
		{
			name:       "postgres without dsn",
			mutate:     func(c *Config) { c.Storage.Driver = "postgres" },
			errorField: "storage.dsn",
		},
		{
			name:       "sqlite without path",
			mutate:     func(c *Config) { c.Storage.Path = "" },
			errorField: "storage.path",
		},
		{
			name:       "zero retention window",
			mutate:     func(c *Config) { c.ElementInfo.Retention.Window = 0 },
			errorField: "elementinfo.retention.window",
		},
		{
			name:       "bad cron schedule",
			mutate:     func(c *Config) { c.ElementInfo.Retention.Schedule = "every day" },
			errorField: "elementinfo.retention.schedule",
		},
		{
			name:       "zero reservation duration",
			mutate:     func(c *Config) { c.Variables.DefaultReservationDuration = 0 },
			errorField: "variables.default_reservation_duration",
		},
		{
			name:       "bad log format",
			mutate:     func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			errorField: "telemetry.logging.format",
		},
		{
			name:       "relative metrics path",
			mutate:     func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "unsorted buckets",
			mutate:     func(c *Config) { c.Telemetry.Metrics.RequestDurationBuckets = []float64{1, 0.5} },
			errorField: "telemetry.metrics.request_duration_buckets",
		},
		{
			name: "api key without principal",
			mutate: func(c *Config) {
				c.Security.Authentication.APIKeys = []APIKeyConfig{{Key: "abc"}}
			},
			errorField: "security.authentication.api_keys[0].principal",
		},
		{
			name: "duplicate api key",
			mutate: func(c *Config) {
				c.Security.Authentication.APIKeys = []APIKeyConfig{
					{Key: "abc", Principal: "a"},
					{Key: "abc", Principal: "b"},
				}
			},
			errorField: "security.authentication.api_keys[1].key",
		},
		{
			name: "jwt with short secret",
			mutate: func(c *Config) {
				c.Security.Authentication.JWT.Enabled = true
				c.Security.Authentication.JWT.Secret = "short"
			},
			errorField: "security.authentication.jwt.secret",
		},
		{
			name:       "tls without cert",
			mutate:     func(c *Config) { c.Security.TLS.Enabled = true; c.Security.TLS.KeyFile = "key.pem" },
			errorField: "security.tls.cert_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got none")
			}
			validationErr := err.(ValidationError)
			if !hasField(validationErr.Errors, tt.errorField) {
				t.Errorf("expected error for field %q, got errors: %v", tt.errorField, validationErr.Errors)
			}
		})
	}
}

func TestValidate_MemoryDriver(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Driver = "memory"
	cfg.Storage.Path = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("memory driver should not need a path: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{
			name: "no errors",
			err:  ValidationError{},
			want: "configuration validation failed",
		},
		{
			name: "single error",
			err: ValidationError{Errors: []FieldError{
				{Field: "server.listen_address", Message: "listen address is required"},
			}},
			want: "configuration validation failed: server.listen_address: listen address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
