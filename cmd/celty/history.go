package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/jgivc/celty/internal/app"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history CONFIG",
	Short: "List submitted torrents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args[0], func(ctx context.Context, a *app.App) error {
			records, err := a.History(ctx)
			if err != nil {
				return err
			}

			sort.Slice(records, func(i, j int) bool {
				return records[i].SubmittedAt.Before(records[j].SubmittedAt)
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBMITTED\tSERIES\tGID\tPATH")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.SubmittedAt.Local().Format(time.DateTime), rec.Series, rec.GID, rec.Path)
			}

			return w.Flush()
		})
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget CONFIG ID",
	Short: "Drop a torrent from the history so the next start submits it again",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args[0], func(ctx context.Context, a *app.App) error {
			return a.Forget(ctx, args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(forgetCmd)
}
