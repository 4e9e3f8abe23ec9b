package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"seleniumrobot/infoserver/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return m
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"bad level", config.LoggingConfig{Level: "loud", Format: "json"}},
		{"bad format", config.LoggingConfig{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, &bytes.Buffer{}); err == nil {
				t.Error("New() expected an error")
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not logged: %q", buf.String())
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "component", "test")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "component=test") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithPrincipal(WithRequestID(context.Background(), "req-1"), "alice")
	logger.With("component", "api").InfoContext(ctx, "handled")

	line := decodeLine(t, &buf)
	if line["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", line["request_id"])
	}
	if line["principal"] != "alice" {
		t.Errorf("principal = %v, want alice", line["principal"])
	}
	if line["component"] != "api" {
		t.Errorf("component = %v, want api", line["component"])
	}
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		name    string
		redact  bool
		key     string
		value   string
		want    string
		notWant string
	}{
		{"sensitive key short", true, "password", "hunter2", "***", "hunter2"},
		{"sensitive key long", true, "api_token", "sk-0123456789", "sk-0***", "0123456789"},
		{"variable value", true, "variable_value", "azertyuiop", "azer***", "azertyuiop"},
		{"bearer in string", true, "header", "Bearer abc.def.ghi", "Bearer ***", "abc.def"},
		{"token in string", true, "header", "Token sk-alice", "Token ***", "sk-alice"},
		{"plain value", true, "name", "login", "login", ""},
		{"disabled", false, "password", "hunter2", "hunter2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(config.LoggingConfig{Level: "info", Format: "json", RedactSecrets: tt.redact}, &buf)
			if err != nil {
				t.Fatal(err)
			}
			logger.Info("event", tt.key, tt.value)

			line := decodeLine(t, &buf)
			got, _ := line[tt.key].(string)
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(buf.String(), tt.notWant) {
				t.Errorf("secret %q leaked: %s", tt.notWant, buf.String())
			}
		})
	}
}

func TestSetup_InstallsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	if _, err := Setup(config.LoggingConfig{Level: "debug", Format: "json"}, &buf); err != nil {
		t.Fatal(err)
	}
	slog.Default().With("component", "x").Debug("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("default logger not installed: %q", buf.String())
	}

	buf.Reset()
	FromContext(WithRequestID(context.Background(), "r-9")).Info("scoped")
	if !strings.Contains(buf.String(), `"request_id":"r-9"`) {
		t.Errorf("FromContext lost request id: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
