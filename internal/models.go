package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Report is a stored session transcript submission
type Report struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Timestamp   time.Time       `json:"timestamp"`
	SessionData json.RawMessage `json:"session_data"`
	RawJSONL    *string         `json:"raw_jsonl"`
}

// HasRawJSONL reports whether the verbatim line-delimited upload was kept
func (r *Report) HasRawJSONL() bool {
	return r.RawJSONL != nil && *r.RawJSONL != ""
}

// Document classifies the stored session data
func (r *Report) Document() Document {
	return ClassifyDocument(r.SessionData)
}

// DownloadFilename returns session-<id>-<timestamp>.jsonl, with ':' and '.'
// in the ISO timestamp replaced so the name is safe on every filesystem
func (r *Report) DownloadFilename() string {
	ts := r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return fmt.Sprintf("session-%s-%s.jsonl", r.ID, ts)
}

// CleanSessionID returns the NFC form of a submitted session id
func CleanSessionID(id string) string {
	return norm.NFC.String(id)
}

// FormatTimestamp renders a report timestamp for people (CLI and dashboard)
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006, 03:04:05 PM")
}

// IsToday reports whether t falls on the current local calendar day
func IsToday(t, now time.Time) bool {
	ty, tm, td := t.Local().Date()
	ny, nm, nd := now.Local().Date()
	return ty == ny && tm == nm && td == nd
}
