package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mklimuk/baro/cmd/dev/cmd"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("unexpected error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "dev",
		Short:         "build/test/release tool for the baro project",
		Long:          "Builds the baro cli for host and boards, runs tests and lint, maintains the changelog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(os.Stdout, debug))
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(cmd.BuildCmd())
	root.AddCommand(cmd.ChangelogCmd())
	root.AddCommand(cmd.TestCmd())
	root.AddCommand(cmd.LintCmd())
	root.AddCommand(cmd.IntegrationTestCmd())
	return root
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	charm := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "baro",
	})
	charm.SetColorProfile(termenv.TrueColor)
	if debug {
		charm.SetLevel(log.DebugLevel)
	} else {
		charm.SetLevel(log.InfoLevel)
	}
	return slog.New(charm)
}
