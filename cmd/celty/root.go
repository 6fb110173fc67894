package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jgivc/celty/internal/app"
	"github.com/jgivc/celty/internal/common"
	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitError = 1
)

var opts app.Options

var rootCmd = &cobra.Command{
	Use:           "celty",
	Short:         "Hand torrents from a watch directory to aria2",
	Long:          "celty submits the torrents of a watch directory to a running aria2 daemon, placing each series where its config entry says",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "Log file, - for stderr")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "Env file to load before reading the config")
}

func execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, common.ErrUnknownProperty) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}

		return exitError
	}

	return exitOK
}

// withApp runs fn with an initialized app for the config file given as the
// first argument.
func withApp(cmd *cobra.Command, cfgPath string, fn func(context.Context, *app.App) error) error {
	a := app.New(cfgPath, opts)
	if err := a.Init(); err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}
