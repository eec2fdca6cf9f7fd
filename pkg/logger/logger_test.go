package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug", "debug", "text"},
		{"info", "info", ""},
		{"warn json", "warn", "json"},
		{"error upper case", "ERROR", "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level, tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger := GetLogger()
			if logger == nil {
				t.Fatal("GetLogger() returned nil")
			}
		})
	}
}

func TestInitLogger_Invalid(t *testing.T) {
	if err := InitLogger("invalid", "text"); err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
	if err := InitLogger("info", "xml"); err == nil {
		t.Error("expected error for invalid log format, got nil")
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("hidden")
	l.Warn("shown", "name", "main.fr")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "name=main.fr") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Debug("binding defined", "name", "x")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "binding defined" || record["name"] != "x" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestGetLogger_BeforeInit(t *testing.T) {
	// globalLoggerをリセット
	globalLogger = nil

	logger := GetLogger()
	if logger == nil {
		t.Error("GetLogger() should return default logger when not initialized")
	}

	// デフォルトロガーが返されることを確認
	if logger != slog.Default() {
		t.Error("GetLogger() should return slog.Default() when not initialized")
	}
}

func TestGetLogger_AfterInit(t *testing.T) {
	err := InitLogger("info", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger := GetLogger()
	if logger != globalLogger {
		t.Error("GetLogger() should return the initialized logger")
	}
}
