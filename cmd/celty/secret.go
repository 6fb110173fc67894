package main

import (
	"fmt"

	"github.com/jgivc/celty/internal/adapter/aria2"
	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Print a new RPC secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := aria2.GenerateSecret()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), secret)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(secretCmd)
}
