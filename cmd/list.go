package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
)

var (
	listFormat   string
	listNoHeader bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	Long:  `List all stored session reports, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store internal.ReportStore) error {
			reports, err := store.List(ctx)
			if err != nil {
				return err
			}
			return writeReportList(cmd.OutOrStdout(), reports, listFormat, !listNoHeader)
		})
	},
}

// reportSummary is the list row for one report
type reportSummary struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Shape     string    `json:"shape"`
	Messages  int       `json:"messages"`
	RawJSONL  bool      `json:"raw_jsonl"`
}

func summarize(report *internal.Report) reportSummary {
	s := reportSummary{
		ID:        report.ID,
		SessionID: report.SessionID,
		Timestamp: report.Timestamp,
		RawJSONL:  report.HasRawJSONL(),
	}
	switch n := internal.Normalize(report.Document()).(type) {
	case internal.Entries:
		s.Shape = "entries"
		s.Messages = len(n.Present())
	case internal.Unstructured:
		s.Shape = "unstructured"
	}
	return s
}

func writeReportList(w io.Writer, reports []*internal.Report, format string, includeHeader bool) error {
	items := make([]reportSummary, 0, len(reports))
	for _, r := range reports {
		items = append(items, summarize(r))
	}

	switch strings.ToLower(format) {
	case "", "table":
		return writeListTable(w, items, includeHeader)
	case "plain":
		return writeListPlain(w, items, includeHeader)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, plain, json, jsonl)", format)
	}
}

func writeListPlain(w io.Writer, items []reportSummary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "id\ttimestamp\tsession_id\tshape\tmessages\traw_jsonl"); err != nil {
			return err
		}
	}
	for _, item := range items {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\n",
			item.ID,
			item.Timestamp.UTC().Format(time.RFC3339),
			item.SessionID,
			item.Shape,
			item.Messages,
			item.RawJSONL,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeListTable(w io.Writer, items []reportSummary, includeHeader bool) error {
	if includeHeader {
		_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 Found %d report(s)", len(items))))
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 40},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"ID", "Received", "Session", "Messages", "Raw"})
	}

	for _, item := range items {
		messages := fmt.Sprintf("%d", item.Messages)
		if item.Shape == "unstructured" {
			messages = "-"
		}
		raw := ""
		if item.RawJSONL {
			raw = "✓"
		}
		tw.AppendRow(table.Row{
			item.ID,
			internal.FormatTimestamp(item.Timestamp),
			item.SessionID,
			messages,
			raw,
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "-", "(no reports)", "-", ""})
	}

	_ = tw.Render()

	if len(items) > 0 && includeHeader {
		_, _ = fmt.Fprintln(w, idStyle.Render("💡 Tip: view a report with `session-report show "+items[0].ID+"`"))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, plain, json, jsonl)")
	listCmd.Flags().BoolVar(&listNoHeader, "no-header", false, "Omit the header row")
}
