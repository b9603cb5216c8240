package internal

import (
	"encoding/json"
	"time"
)

// CreateTestReport creates a report holding a short turn-records transcript
func CreateTestReport(id string) *Report {
	return CreateTestReportWithData(id, json.RawMessage(`[
		{"type":"user","message":{"role":"user","content":"Hello, how are you?"}},
		{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"I'm doing well, thank you!"}]}}
	]`))
}

// CreateTestReportWithData creates a report with custom session data
func CreateTestReportWithData(id string, data json.RawMessage) *Report {
	return &Report{
		ID:          id,
		SessionID:   "session-" + id,
		Timestamp:   time.Date(2025, 1, 5, 10, 4, 5, 67_000_000, time.UTC),
		SessionData: data,
	}
}

// CreateTestReportWithRaw creates a report that kept its raw JSONL upload
func CreateTestReportWithRaw(id string, data json.RawMessage, raw string) *Report {
	r := CreateTestReportWithData(id, data)
	r.RawJSONL = &raw
	return r
}
