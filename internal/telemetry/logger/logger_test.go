package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// newJSONLogger builds a JSON logger writing into the returned buffer.
func newJSONLogger(t *testing.T, level string) (*bytes.Buffer, Logger) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &buf, l
}

// lastEntry parses the buffer's final line as one JSON log record.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}

func TestNew_Formats(t *testing.T) {
	for _, cfg := range []Config{
		DefaultConfig(),
		{Level: "debug", Format: "text"},
		{Level: "info", Format: "console"},
	} {
		l, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%+v): %v", cfg, err)
		}
		if l == nil {
			t.Fatalf("New(%+v) returned nil", cfg)
		}
	}
}

func TestLogger_AttrsSurviveAllLevels(t *testing.T) {
	buf, l := newJSONLogger(t, "debug")

	for _, logFunc := range []func(string, ...any){l.Debug, l.Info, l.Warn, l.Error} {
		buf.Reset()
		logFunc("snapshot exported", "tenant_id", "t1")

		entry := lastEntry(t, buf)
		if entry["msg"] != "snapshot exported" {
			t.Fatalf("msg = %v", entry["msg"])
		}
		if entry["tenant_id"] != "t1" {
			t.Fatalf("tenant_id = %v", entry["tenant_id"])
		}
	}
}

func TestLogger_With(t *testing.T) {
	buf, l := newJSONLogger(t, "info")

	l.With("component", "backup").Info("cache opened")

	entry := lastEntry(t, buf)
	if entry["component"] != "backup" {
		t.Fatalf("component = %v", entry["component"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf, l := newJSONLogger(t, "warn")

	l.Debug("suppressed")
	l.Info("suppressed")
	if buf.Len() > 0 {
		t.Fatal("debug/info leaked through a warn-level logger")
	}

	l.Warn("import produced errors")
	if buf.Len() == 0 {
		t.Fatal("warn suppressed at warn level")
	}
}

func TestSetLevel_Dynamic(t *testing.T) {
	buf, l := newJSONLogger(t, "error")

	l.Info("suppressed")
	if buf.Len() > 0 {
		t.Fatal("info leaked at error level")
	}

	SetLevel("debug")
	l.Info("auto backup saved")
	if buf.Len() == 0 {
		t.Fatal("info still suppressed after SetLevel(debug)")
	}
	if GetLevel() != "debug" {
		t.Fatalf("GetLevel = %q, want debug", GetLevel())
	}
}

func TestSetLevel_ParsesAliases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"DEBUG", "debug"},
		{"warning", "warn"},
		{"ERROR", "error"},
		{"bogus", "info"},
		{"", "info"},
	}
	for _, tt := range tests {
		SetLevel(tt.input)
		if got := GetLevel(); got != tt.want {
			t.Fatalf("SetLevel(%q); GetLevel() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefault_NeverNil(t *testing.T) {
	l := Default()
	if l == nil {
		t.Fatal("Default returned nil")
	}
	l.Info("usable without setup")
}

func TestPackageLevelFunctions(t *testing.T) {
	buf, l := newJSONLogger(t, "debug")
	SetDefault(l)

	for _, logFunc := range []func(string, ...any){Debug, Info, Warn, Error} {
		buf.Reset()
		logFunc("via package default")
		if buf.Len() == 0 {
			t.Fatal("package-level function produced no output")
		}
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf, l := newJSONLogger(t, "info")

	l.WithContext(context.Background()).Info("restore started")
	if buf.Len() == 0 {
		t.Fatal("context-bound logger produced no output")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" || cfg.Output == nil {
		t.Fatalf("DefaultConfig = %+v", cfg)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info("snapshot imported", "mode", "merge")

	out := buf.String()
	if !strings.Contains(out, "snapshot imported") || !strings.Contains(out, "mode=merge") {
		t.Fatalf("text output = %q", out)
	}
}

func TestToSlog(t *testing.T) {
	buf, l := newJSONLogger(t, "info")

	sl := ToSlog(l)
	if sl == nil {
		t.Fatal("ToSlog returned nil")
	}
	sl.Info("bridged", "tenant_id", "t1")

	entry := lastEntry(t, buf)
	if entry["tenant_id"] != "t1" {
		t.Fatalf("tenant_id = %v", entry["tenant_id"])
	}
}
