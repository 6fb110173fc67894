package main

import (
	"context"
	"fmt"

	"github.com/jgivc/celty/internal/app"
	"github.com/spf13/cobra"
)

var reportPath string

var startCmd = &cobra.Command{
	Use:   "start CONFIG",
	Short: "Submit every torrent of the watch directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args[0], func(ctx context.Context, a *app.App) error {
			report, err := a.Start(ctx, reportPath)
			if err != nil {
				return err
			}

			added, skipped, failed := report.Count()
			fmt.Fprintf(cmd.OutOrStdout(), "Added: %d, skipped: %d, failed: %d\n", added, skipped, failed)

			return nil
		})
	},
}

func init() {
	startCmd.Flags().StringVarP(&reportPath, "report", "r", "", "Write a report, HTML if the file ends in .html, Markdown otherwise")

	rootCmd.AddCommand(startCmd)
}
