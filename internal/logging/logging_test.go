package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("json check")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected json level in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"json check"`) {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", "console", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("expected warn output: %s", out)
	}
}

func TestNew_InvalidInput(t *testing.T) {
	if _, err := New("loud", "json", nil); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Error("expected no-op logger")
	}
}
