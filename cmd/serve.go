package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report receiver and dashboard",
	Long: `Run the HTTP receiver. Clients POST reports to /api/report; the dashboard
is served at /. Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			appConfig.Server.Addr = serveAddr
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				internal.LogWarn("Failed to close report store: %v", err)
			}
		}()

		srv, err := server.New(store, server.OptionsFromConfig(appConfig.Server))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		internal.LogInfo("Using %s store at %s", appConfig.Storage.Backend, appConfig.Storage.Path)
		return srv.ListenAndServe(ctx, appConfig.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :3000)")
}
