package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
)

var (
	healthcheckVerbose bool
	healthcheckURL     string
)

var sectionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("62")).
	Bold(true).
	Underline(true)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the report store (and optionally a receiver) is usable",
	Long: `Check the health of session-report by verifying:
  • Configuration is valid
  • The report store opens
  • Stored reports can be read and classified
  • A running receiver answers /health (with --url)

This command is useful for debugging storage issues and in container health checks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealthcheck(cmd.Context(), cmd.OutOrStdout())
	},
}

// healthReport collects what the healthcheck steps found
type healthReport struct {
	reports      int
	unstructured int
	receiverTime string
}

func runHealthcheck(ctx context.Context, w io.Writer) error {
	_, _ = fmt.Fprintln(w, sectionStyle.Render("🔍 Session Report Health Check"))
	_, _ = fmt.Fprintln(w)

	var (
		store  internal.ReportStore
		result healthReport
	)
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()

	steps := []internal.ProgressStep{
		{
			Message: "Checking configuration",
			Fn:      appConfig.Validate,
		},
		{
			Message: "Opening report store",
			Fn: func() error {
				var err error
				store, err = openStore()
				return err
			},
		},
		{
			Message: "Reading reports",
			Fn: func() error {
				reports, err := store.List(ctx)
				if err != nil {
					return err
				}
				result.reports = len(reports)
				for _, r := range reports {
					if _, ok := internal.Normalize(r.Document()).(internal.Unstructured); ok {
						result.unstructured++
					}
				}
				return nil
			},
		},
	}
	if healthcheckURL != "" {
		steps = append(steps, internal.ProgressStep{
			Message: "Checking receiver at " + healthcheckURL,
			Fn: func() error {
				ts, err := pingHealth(ctx, healthcheckURL)
				result.receiverTime = ts
				return err
			},
		})
	}

	if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
		internal.PrintError(w, "Health check failed: "+err.Error())
		return err
	}

	internal.PrintSuccess(w, fmt.Sprintf("Configuration loaded (%s)", appConfig.Source()))
	if healthcheckVerbose {
		internal.PrintInfo(w, "Backend: "+appConfig.Storage.Backend)
		internal.PrintInfo(w, "Path: "+appConfig.Storage.Path)
		internal.PrintInfo(w, "Listen address: "+appConfig.Server.Addr)
	}
	internal.PrintSuccess(w, "Report store opened")
	internal.PrintSuccess(w, fmt.Sprintf("Found %d report(s)", result.reports))
	if result.unstructured > 0 {
		internal.PrintWarning(w, fmt.Sprintf("%d report(s) hold unstructured session data", result.unstructured))
	}
	if healthcheckURL != "" {
		internal.PrintSuccess(w, fmt.Sprintf("Receiver healthy (%s)", result.receiverTime))
	}

	_, _ = fmt.Fprintln(w)
	internal.PrintSuccess(w, "Health check passed")
	return nil
}

// pingHealth calls <base>/health and returns the reported timestamp
func pingHealth(ctx context.Context, baseURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("invalid health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return "", fmt.Errorf("receiver reported %q (%s)", body.Status, resp.Status)
	}
	return body.Timestamp, nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "verbose-details", false, "Show detailed information")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "Also check a running receiver at this base URL")
}
