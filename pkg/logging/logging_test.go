package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, test := range tests {
		got, err := ParseLevel(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", test.in, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", test.in, got, test.want)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("test-subsystem", "test message %d", 42)

	output := buf.String()
	if !strings.Contains(output, "test message 42") {
		t.Errorf("Expected formatted message in output, got %q", output)
	}
	if !strings.Contains(output, "subsystem=test-subsystem") {
		t.Errorf("Expected subsystem attribute in output, got %q", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("sub", "debug entry")
	Info("sub", "info entry")
	Warn("sub", "warn entry")

	output := buf.String()
	if strings.Contains(output, "debug entry") || strings.Contains(output, "info entry") {
		t.Errorf("Expected entries below WARN to be filtered, got %q", output)
	}
	if !strings.Contains(output, "warn entry") {
		t.Errorf("Expected warn entry in output, got %q", output)
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("sub", errors.New("boom"), "operation failed")

	output := buf.String()
	if !strings.Contains(output, "operation failed") {
		t.Errorf("Expected message in output, got %q", output)
	}
	if !strings.Contains(output, "error=boom") {
		t.Errorf("Expected error attribute in output, got %q", output)
	}
}

func TestPercentInArgumentIsKept(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("sub", "progress %s", "100% done")

	if !strings.Contains(buf.String(), "progress 100% done") {
		t.Errorf("Expected literal message, got %q", buf.String())
	}
}
