package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/session-report/internal"
)

// MarkdownExporter exports reports in Markdown format
type MarkdownExporter struct{}

// Export exports a report to Markdown format
func (e *MarkdownExporter) Export(report *internal.Report, w io.Writer) error {
	view := newReportView(report)

	// Header
	_, _ = fmt.Fprintf(w, "# Report %s\n\n", view.ID)
	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", view.SessionID)
	_, _ = fmt.Fprintf(w, "**Received:** %s  \n", view.Timestamp)

	if view.Metadata != nil {
		if view.Metadata.Timestamp != "" {
			_, _ = fmt.Fprintf(w, "**Time:** %s  \n", view.Metadata.Timestamp)
		}
		if view.Metadata.WorkingDir != "" {
			_, _ = fmt.Fprintf(w, "**Working directory:** %s  \n", view.Metadata.WorkingDir)
		}
	}

	if view.Raw != "" {
		_, _ = fmt.Fprintf(w, "\n---\n\n## Raw data\n\n```json\n%s\n```\n", view.Raw)
		return nil
	}

	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(view.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range view.Messages {
		_, err := fmt.Fprintf(w, "**%s:**\n\n%s\n\n", msg.Role, escapeMarkdown(msg.Text))
		if err != nil {
			return err
		}

		// Horizontal rule between messages
		if i < len(view.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes bold and underline markers outside fenced code
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
		case !inCodeBlock:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
