// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const programName = "calmunity"

var globalFlags = struct {
	debug bool
}{}

// setupLogging installs the process-wide slog handler
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: debug,
		Level:     level,
	})))
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Community proposal voting and dictionary server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(globalFlags.debug)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(validateCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(memberKeyCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
