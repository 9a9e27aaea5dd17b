package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "info", "json")
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	logger.Info("tree saved", zap.String("owner", "alice"))
	logger.Debug("hidden")
	logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 (debug filtered): %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "tree saved" || entry["owner"] != "alice" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("entry missing ts key")
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "debug", "console")
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	logger.Debug("visible")
	logger.Sync()
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("output = %q, want debug line", buf.String())
	}
}

func TestNewWithWriter_Errors(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewWithWriter(&buf, "loud", "json"); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := NewWithWriter(&buf, "info", "xml"); err == nil {
		t.Error("expected error for bad format")
	}
}
