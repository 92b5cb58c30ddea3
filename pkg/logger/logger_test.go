package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"disabled", zerolog.Disabled},
		{"trace", zerolog.TraceLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInitWithFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "brainbox.log")
	defer func() { _ = Close() }()

	if err := Init(LogConfig{Level: "debug", Format: "json", File: logPath}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Info().Str("turn", "t-1").Msg("turn finished")

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "turn finished") {
		t.Errorf("log file missing message, got: %s", content)
	}
}

func TestInitWithInvalidFile(t *testing.T) {
	defer func() { _ = Close() }()

	err := Init(LogConfig{Level: "info", Format: "json", File: "/nonexistent/directory/test.log"})
	if err == nil {
		t.Error("expected error for invalid file path")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	Component("runner").Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	if entry["component"] != "runner" {
		t.Errorf("component = %v, want runner", entry["component"])
	}
}

func TestInit_FileIsJSONWithConsoleStderr(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "brainbox.log")
	defer func() { _ = Close() }()

	if err := Init(LogConfig{Level: "warning", Format: "console", File: logPath}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Info().Msg("dropped")
	Warn().Str("kind", "timeout").Msg("turn failed")
	_ = Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), content)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("file line is not JSON: %v", err)
	}
	if entry["kind"] != "timeout" || entry["level"] != "warn" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
