package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/session-report/internal"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestRoleLabel(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"user", "User"},
		{"assistant", "Assistant"},
		{"toolResult", "ToolResult"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoleLabel(tt.role), "role %q", tt.role)
	}
}

func TestRoleLabel_Concurrent(t *testing.T) {
	r := newTestRenderer(t)
	report := internal.CreateTestReport("R1")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if got := RoleLabel("assistant"); got != "Assistant" {
					errs <- fmt.Errorf("RoleLabel(assistant) = %q", got)
					return
				}
				var buf bytes.Buffer
				if err := r.Detail(&buf, report); err != nil {
					errs <- err
					return
				}
				if !strings.Contains(buf.String(), `<div class="message-role">User</div>`) {
					errs <- fmt.Errorf("detail page lost the user label")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestIndex_Stats(t *testing.T) {
	r := newTestRenderer(t)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	r.now = func() time.Time { return now }

	reports := []*internal.Report{
		{ID: "A", SessionID: "today-1", Timestamp: now.Add(-time.Hour)},
		{ID: "B", SessionID: "today-2", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "C", SessionID: "old", Timestamp: now.AddDate(0, 0, -3)},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, reports))
	out := buf.String()

	assert.Contains(t, out, `<div class="number">3</div><div class="label">Total Reports</div>`)
	assert.Contains(t, out, `<div class="number">2</div><div class="label">Today</div>`)
	assert.Contains(t, out, `href="/reports/A"`)
	assert.Contains(t, out, "Session: old")
}

func TestIndex_Empty(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, nil))
	assert.Contains(t, buf.String(), "No reports yet")
}

func TestIndex_EscapesSessionID(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Index(&buf, []*internal.Report{{ID: "A", SessionID: "<script>alert(1)</script>"}}))
	out := buf.String()

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestDetail_Entries(t *testing.T) {
	r := newTestRenderer(t)
	report := internal.CreateTestReportWithData("R1", json.RawMessage(`{
		"timestamp":"2025-01-05T10:00:00Z",
		"working_dir":"/home/dev",
		"messages":[{"role":"user","content":"<b>hi</b>"},{"role":"assistant","content":"hello"}]
	}`))

	var buf bytes.Buffer
	require.NoError(t, r.Detail(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "<strong>Time:</strong> 2025-01-05T10:00:00Z")
	assert.Contains(t, out, "<strong>Directory:</strong> /home/dev")
	assert.Contains(t, out, `class="message-entry user"`)
	assert.Contains(t, out, `<div class="message-role">Assistant</div>`)
	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;")
	assert.NotContains(t, out, "<b>hi</b>")
	assert.Contains(t, out, `href="/api/reports/R1/download"`)
	assert.Contains(t, out, `action="/reports/R1/delete"`)
}

func TestDetail_SkipsEmptyEntries(t *testing.T) {
	r := newTestRenderer(t)
	report := internal.CreateTestReportWithData("R2", json.RawMessage(`[
		{"message":{"role":"assistant","content":[{"type":"tool_use","id":"x"}]}},
		{"message":{"role":"user","content":"kept"}}
	]`))

	var buf bytes.Buffer
	require.NoError(t, r.Detail(&buf, report))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, `class="message-entry `))
	assert.Contains(t, out, "kept")
}

func TestDetail_Unstructured(t *testing.T) {
	r := newTestRenderer(t)
	report := internal.CreateTestReportWithData("R3", json.RawMessage(`{"foo":"<bar>"}`))

	var buf bytes.Buffer
	require.NoError(t, r.Detail(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "<pre>{\n  &#34;foo&#34;: &#34;&lt;bar&gt;&#34;\n}</pre>")
	assert.NotContains(t, out, "message-entry")
}

func TestNotFound(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.NotFound(&buf, "missing-id"))
	assert.Contains(t, buf.String(), "Report missing-id not found")
}
