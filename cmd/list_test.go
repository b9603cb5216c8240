package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/testutil"
)

func listFixture() []*internal.Report {
	return []*internal.Report{
		internal.CreateTestReport("a"),
		internal.CreateTestReportWithData("b", json.RawMessage(testutil.UnstructuredJSON)),
	}
}

func TestWriteReportList_Plain(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReportList(&buf, listFixture(), "plain", true); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"id\ttimestamp\tsession_id\tshape\tmessages\traw_jsonl",
		"a\t2025-01-05T10:04:05Z\tsession-a\tentries\t2\tfalse",
		"b\t2025-01-05T10:04:05Z\tsession-b\tunstructured\t0\tfalse",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteReportList_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReportList(&buf, listFixture(), "plain", false); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}
	if strings.Contains(buf.String(), "session_id") {
		t.Error("header should be omitted")
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("got %d lines, want 2", got)
	}
}

func TestWriteReportList_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReportList(&buf, listFixture(), "json", true); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}

	var items []reportSummary
	if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Shape != "entries" || items[0].Messages != 2 {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].Shape != "unstructured" || items[1].Messages != 0 {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestWriteReportList_JSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReportList(&buf, listFixture(), "jsonl", true); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		var item reportSummary
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			t.Errorf("line %q is not JSON: %v", line, err)
		}
	}
}

func TestWriteReportList_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReportList(&buf, listFixture(), "table", true); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Found 2 report(s)", "ID", "Session", "session-a", "session-b", "show a"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportList_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReportList(&buf, nil, "table", true); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no reports)") {
		t.Errorf("empty table should say so:\n%s", buf.String())
	}

	buf.Reset()
	if err := writeReportList(&buf, nil, "json", true); err != nil {
		t.Fatalf("writeReportList failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON list = %q, want []", buf.String())
	}
}

func TestWriteReportList_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeReportList(&buf, listFixture(), "csv", true)
	if err == nil || !strings.Contains(err.Error(), "unsupported format: csv") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestSummarize_RawJSONL(t *testing.T) {
	report := internal.CreateTestReportWithRaw("r", json.RawMessage(testutil.TurnRecordsJSON), testutil.RawJSONL)
	s := summarize(report)
	if !s.RawJSONL {
		t.Error("summary should flag the raw upload")
	}
	if s.Messages != 2 {
		t.Errorf("messages = %d, want 2", s.Messages)
	}
}

func TestListCommand_JSONStore(t *testing.T) {
	path, ids := seededDataFile(t)

	out, err := executeCommand(t, "--data", path, "list", "--format", "plain", "--no-header")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	// Newest first
	if !strings.HasPrefix(lines[0], ids[2]+"\t") {
		t.Errorf("first line = %q, want report %s", lines[0], ids[2])
	}
	if !strings.HasPrefix(lines[2], ids[0]+"\t") {
		t.Errorf("last line = %q, want report %s", lines[2], ids[0])
	}
}

func TestListCommand_SQLiteStore(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "reports.db")
	ids := testutil.SeedSQLiteStore(t, path, testutil.DefaultSeed())

	out, err := executeCommand(t, "--backend", "sqlite", "--data", path, "list", "-f", "plain", "--no-header")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], ids[2]+"\t") {
		t.Errorf("first line = %q, want report %s", lines[0], ids[2])
	}
	if !strings.Contains(lines[0], "\tturns\tentries\t2\ttrue") {
		t.Errorf("turn-records report summary = %q", lines[0])
	}
}
