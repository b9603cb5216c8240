package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/session-report/internal"
)

// JSONExporter exports reports in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a report's normalized conversation as JSON
func (e *JSONExporter) Export(report *internal.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(newReportView(report))
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
