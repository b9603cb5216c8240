package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/internal/dashboard"
)

var (
	limit int
)

var (
	// Styles for show command
	reportHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	reportMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show the conversation in a stored report",
	Long:  `Display the normalized conversation of a stored report.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store internal.ReportStore) error {
			report, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report, limit)
			return nil
		})
	},
}

func renderReport(w io.Writer, report *internal.Report, limit int) {
	_, _ = fmt.Fprintln(w, reportHeaderStyle.Render(fmt.Sprintf("💬 Report %s", report.ID)))

	metaParts := []string{
		fmt.Sprintf("Session: %s", report.SessionID),
		fmt.Sprintf("Received: %s", internal.FormatTimestamp(report.Timestamp)),
	}

	switch n := internal.Normalize(report.Document()).(type) {
	case internal.Unstructured:
		_, _ = fmt.Fprintln(w, reportMetaStyle.Render(strings.Join(metaParts, " • ")))
		_, _ = fmt.Fprintln(w, n.Text)

	case internal.Entries:
		if n.Metadata.Timestamp != "" {
			metaParts = append(metaParts, fmt.Sprintf("Time: %s", n.Metadata.Timestamp))
		}
		if n.Metadata.WorkingDir != "" {
			metaParts = append(metaParts, fmt.Sprintf("Directory: %s", n.Metadata.WorkingDir))
		}
		messages := n.Present()
		metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(messages)))
		_, _ = fmt.Fprintln(w, reportMetaStyle.Render(strings.Join(metaParts, " • ")))
		_, _ = fmt.Fprintln(w)

		total := len(messages)
		if limit > 0 && limit < total {
			messages = messages[:limit]
		}
		for i, entry := range messages {
			displayEntry(w, i+1, entry, total)
		}

		// Show remaining count if limit was applied
		if limit > 0 && limit < total {
			_, _ = fmt.Fprintln(w, timestampStyle.Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}
	}
}

func displayEntry(w io.Writer, index int, entry internal.Entry, total int) {
	var label string
	style := otherMessageStyle

	switch entry.Role {
	case "user":
		style = userMessageStyle
		label = "👤 User"
	case "assistant":
		style = assistantMessageStyle
		label = "🤖 Assistant"
	default:
		label = "🔧 " + dashboard.RoleLabel(entry.Role)
	}

	_, _ = fmt.Fprintln(w, style.Render(label)+" "+timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total)))
	_, _ = fmt.Fprintln(w, messageContentStyle.Render(wrapText(strings.TrimSpace(entry.Text), 80)))
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+len(word)+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
}
