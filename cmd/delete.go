package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <report-id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withStore(func(ctx context.Context, store internal.ReportStore) error {
			n, err := store.Delete(ctx, id)
			if err != nil {
				return err
			}
			if n == 0 {
				return &internal.NotFoundError{ID: id}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
