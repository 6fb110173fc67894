package main

import (
	"context"
	"fmt"

	"github.com/jgivc/celty/internal/app"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add CONFIG TORRENT",
	Short: "Submit a single torrent of the watch directory",
	Long:  "Submit a single torrent of the watch directory, even if it was submitted before. The extension may be omitted.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args[0], func(ctx context.Context, a *app.App) error {
			sub, err := a.Add(ctx, args[1])
			if err != nil {
				return err
			}

			series := sub.Resolution.SeriesName()
			if series == "" {
				series = "-"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (series: %s, gid: %s)\n", sub.Torrent.Name, sub.Resolution.DownloadDir, series, sub.GID)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
