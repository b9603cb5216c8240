package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
)

var (
	verbose     bool
	configPath  string
	dataPath    string
	backendName string
	appConfig   = internal.DefaultConfig()
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "session-report",
	Short: "Collect, browse and export coding-assistant session reports",
	Long: `A small service for collecting coding-assistant session transcripts.

Clients POST transcripts to the receiver; reports are stored in a JSON file
(or SQLite database) and can be browsed in a web dashboard, listed and shown
from the terminal, or exported as JSONL, Markdown, YAML or JSON.

Quick Start:
  session-report serve                     # Start the receiver on :3000
  session-report submit session.jsonl      # Send a transcript
  session-report list                      # List stored reports
  session-report show <report-id>          # View a report's conversation
  session-report export --format md        # Export every report as Markdown`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg
		if err := appConfig.ApplyLogging(); err != nil {
			return err
		}
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

// loadConfig reads the config file, then environment, then flags
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if backendName != "" {
		cfg.Storage.Backend = backendName
		cfg.Storage.UseBackendDefaultPath()
	}
	if dataPath != "" {
		cfg.Storage.Path = dataPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the report store selected by the effective configuration
func openStore() (internal.ReportStore, error) {
	store, err := internal.OpenReportStore(appConfig.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}
	return store, nil
}

// withStore opens the store, runs fn, and closes the store
func withStore(fn func(ctx context.Context, store internal.ReportStore) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			internal.LogWarn("Failed to close report store: %v", err)
		}
	}()
	return fn(context.Background(), store)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+internal.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Report store path (JSON file or SQLite database)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Storage backend (json, sqlite)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
