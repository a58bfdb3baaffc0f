package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("json format should return JSONFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("table format should return TableFormatter")
	}
	if _, ok := NewFormatter("bogus").(*TableFormatter); !ok {
		t.Error("unknown format should fall back to TableFormatter")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}
	if err := f.Format(&buf, map[string]int{"items": 3}); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"items": 3`) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTable_Render(t *testing.T) {
	table := &Table{Headers: []string{"ID", "TENANT"}}
	table.AddRow("b001", "t1")
	table.AddRow("b002", "t2")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "b001") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	table := &Table{Headers: []string{"ID"}}
	table.AddRow("b001")

	var buf bytes.Buffer
	f := &TableFormatter{NoHeaders: true}
	if err := f.Format(&buf, table); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if strings.Contains(buf.String(), "ID") {
		t.Errorf("headers should be suppressed: %q", buf.String())
	}
}

func TestTableFormatter_FallbackJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	if err := f.Format(&buf, map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"status": "ok"`) {
		t.Errorf("output = %q", buf.String())
	}
}
