package export

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/iksnae/session-report/internal"
)

// line is one exported message; field order fixes the key order
type line struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToLineDelimited renders entries as one compact {"role","content"} object
// per line, joined by "\n" with no trailing newline. Entries without text
// are omitted.
func ToLineDelimited(entries []internal.Entry) (string, error) {
	var (
		buf   bytes.Buffer
		lines []string
	)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, entry := range entries {
		if entry.Text == "" {
			continue
		}
		buf.Reset()
		if err := enc.Encode(line{Role: entry.Role, Content: entry.Text}); err != nil {
			return "", &internal.SerializationError{Err: err}
		}
		lines = append(lines, strings.TrimSuffix(buf.String(), "\n"))
	}

	return strings.Join(lines, "\n"), nil
}

// ReportJSONL returns the line-delimited export text for a report. A kept
// raw upload is returned unchanged; otherwise the session data is normalized.
// Unstructured data exports as the empty string.
func ReportJSONL(report *internal.Report) (string, error) {
	if report.HasRawJSONL() {
		return *report.RawJSONL, nil
	}

	switch n := internal.Normalize(report.Document()).(type) {
	case internal.Entries:
		return ToLineDelimited(n.Items)
	default:
		return "", nil
	}
}

// JSONLExporter exports reports in JSONL format (one message per line)
type JSONLExporter struct{}

// Export writes the report's line-delimited export text
func (e *JSONLExporter) Export(report *internal.Report, w io.Writer) error {
	text, err := ReportJSONL(report)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
