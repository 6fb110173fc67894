package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jgivc/celty/internal/app"
	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version [CONFIG]",
	Short: "Print the celty version, and the daemon's when a config is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "celty", version)

		if len(args) == 0 {
			return nil
		}

		return withApp(cmd, args[0], func(ctx context.Context, a *app.App) error {
			info, err := a.Version(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "aria2 %s (%s)\n", info.Version, strings.Join(info.EnabledFeatures, ", "))

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
