package export

import (
	"time"

	"github.com/iksnae/session-report/internal"
)

// reportView is the document shape shared by the JSON and YAML exporters
type reportView struct {
	ID        string             `json:"id" yaml:"id"`
	SessionID string             `json:"session_id" yaml:"session_id"`
	Timestamp string             `json:"timestamp" yaml:"timestamp"`
	Metadata  *internal.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Messages  []internal.Entry   `json:"messages,omitempty" yaml:"messages,omitempty"`
	Raw       string             `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func newReportView(report *internal.Report) reportView {
	view := reportView{
		ID:        report.ID,
		SessionID: report.SessionID,
		Timestamp: report.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	switch n := internal.Normalize(report.Document()).(type) {
	case internal.Entries:
		view.Messages = n.Present()
		if !n.Metadata.IsEmpty() {
			md := n.Metadata
			view.Metadata = &md
		}
	case internal.Unstructured:
		view.Raw = n.Text
	}
	return view
}
