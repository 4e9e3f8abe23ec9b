package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"

storage:
  driver: "sqlite"
  path: "./test-info.db"
  wal_mode: false

elementinfo:
  retention:
    window: "240h"
    schedule: "0 3 * * *"

security:
  api_enabled: false
  restrict_to_application: true
  authentication:
    api_keys:
      - key: "robot-key"
        principal: "robot"
        capabilities: ["variable.view", "variable.see_protected"]

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected driver %q, got %q", "sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.WALMode {
		t.Error("expected explicit wal_mode=false to be kept")
	}
	if cfg.ElementInfo.Retention.Window != 240*time.Hour {
		t.Errorf("expected retention window 240h, got %v", cfg.ElementInfo.Retention.Window)
	}
	if cfg.Security.SecurityEnabled() {
		t.Error("expected api security to be disabled")
	}
	if !cfg.Security.RestrictToApplication {
		t.Error("expected restrict_to_application to be set")
	}
	if len(cfg.Security.Authentication.APIKeys) != 1 {
		t.Fatalf("expected 1 api key, got %d", len(cfg.Security.Authentication.APIKeys))
	}
	if got := cfg.Security.Authentication.APIKeys[0].Capabilities; len(got) != 2 {
		t.Errorf("expected 2 capabilities, got %v", got)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Security.SecurityEnabled() {
		t.Error("expected api security enabled when the key is absent")
	}
	if !cfg.Storage.WALMode {
		t.Error("expected wal mode enabled when the key is absent")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  listen_address: [unclosed\n"))
	if err == nil {
		t.Fatal("expected error for malformed YAML, got nil")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  driver: "mongodb"
elementinfo:
  retention:
    schedule: "not a cron"
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError in error chain, got %T: %v", err, err)
	}
	if len(validationErr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(validationErr.Errors), validationErr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8000"
storage:
  driver: "sqlite3"
`)

	t.Setenv("INFOSERVER_SERVER_LISTEN_ADDRESS", "0.0.0.0:9090")
	t.Setenv("INFOSERVER_STORAGE_DRIVER", "postgres")
	t.Setenv("INFOSERVER_STORAGE_DSN", "postgres://robot@localhost/infoserver")
	t.Setenv("INFOSERVER_ELEMENTINFO_RETENTION_WINDOW", "72h")
	t.Setenv("INFOSERVER_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q from env, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected driver %q from env, got %q", "postgres", cfg.Storage.Driver)
	}
	if cfg.ElementInfo.Retention.Window != 72*time.Hour {
		t.Errorf("expected retention window 72h from env, got %v", cfg.ElementInfo.Retention.Window)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_SecurityToggle(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"true", "true", true},
		{"false", "false", false},
		{"zero", "0", false},
		{"empty disables", "", false},
		{"garbage disables", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("INFOSERVER_SECURITY_API_ENABLED", tt.value)

			cfg, err := LoadConfigWithEnvOverrides("")
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if got := cfg.Security.SecurityEnabled(); got != tt.want {
				t.Errorf("SecurityEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	t.Setenv("INFOSERVER_SERVER_READ_TIMEOUT", "not-a-duration")
	t.Setenv("INFOSERVER_SERVER_MAX_HEADER_BYTES", "lots")
	t.Setenv("INFOSERVER_TELEMETRY_METRICS_ENABLED", "perhaps")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected invalid duration to be ignored, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxHeaderBytes != DefaultMaxHeaderBytes {
		t.Errorf("expected invalid integer to be ignored, got %d", cfg.Server.MaxHeaderBytes)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected invalid boolean to be ignored")
	}
}

func TestLoadConfigWithEnvOverrides_ValidationAfterOverride(t *testing.T) {
	t.Setenv("INFOSERVER_STORAGE_DRIVER", "postgres")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error for postgres without dsn")
	}
}
