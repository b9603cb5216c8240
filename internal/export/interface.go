package export

import (
	"fmt"
	"io"

	"github.com/iksnae/session-report/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(report *internal.Report, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// Filename returns the export file name for a report
func Filename(report *internal.Report, exp Exporter) string {
	if _, ok := exp.(*JSONLExporter); ok {
		return report.DownloadFilename()
	}
	return fmt.Sprintf("session-%s.%s", report.ID, exp.Extension())
}
