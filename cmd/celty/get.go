package main

import (
	"fmt"

	"github.com/jgivc/celty/internal/app"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get CONFIG PROPERTY",
	Short: "Print a config property, e.g. aria2.port or shows.0.name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := app.New(args[0], opts).Get(args[1])
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), v)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
