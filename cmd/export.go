package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/internal/export"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [report-id]",
	Short: "Export reports to files",
	Long: `Export stored reports to various formats (jsonl, md, yaml, json).

Without an id every report is exported. With --out - a single report is
written to standard output. JSONL exports use the original upload when the
report kept one. Use 'session-report list' to see available report IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		return withStore(func(ctx context.Context, store internal.ReportStore) error {
			var reports []*internal.Report
			if len(args) == 1 {
				report, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				reports = []*internal.Report{report}
			} else {
				reports, err = store.List(ctx)
				if err != nil {
					return err
				}
			}

			if outputDir == "-" {
				if len(reports) != 1 {
					return fmt.Errorf("--out - requires a single report id")
				}
				return exporter.Export(reports[0], cmd.OutOrStdout())
			}

			// Ensure output directory exists
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return &internal.ExportError{Format: format, Path: outputDir, Err: err}
			}

			exported := 0
			err := internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d report(s) to %s", len(reports), outputDir), func() error {
				for _, report := range reports {
					path := filepath.Join(outputDir, export.Filename(report, exporter))
					if err := exportToFile(exporter, report, path); err != nil {
						internal.PrintError(cmd.ErrOrStderr(), err.Error())
						continue
					}
					exported++
				}
				return nil
			})
			if err != nil {
				return err
			}

			internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d report(s) exported to %s", exported, outputDir))
			if exported < len(reports) {
				return fmt.Errorf("%d report(s) failed to export", len(reports)-exported)
			}
			return nil
		})
	},
}

func exportToFile(exporter export.Exporter, report *internal.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(report, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory, or - for stdout")
}
