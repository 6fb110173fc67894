package main

import (
	"context"

	"github.com/jgivc/celty/internal/app"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop CONFIG",
	Short: "Shut the aria2 daemon down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args[0], func(ctx context.Context, a *app.App) error {
			return a.Stop(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
