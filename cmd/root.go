// Package cmd implements the pinbook command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verboseFlag bool
	dataDirFlag string
)

var rootCmd = &cobra.Command{
	Use:           "pinbook",
	Short:         "personal bookmarking client for Pinboard",
	Long:          "pinbook keeps a local copy of your Pinboard bookmarks and syncs it with the service.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pinbook: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging")
	pf.StringVar(&dataDirFlag, "data-dir", "", "data directory (default $PINBOOK_HOME or the user config dir)")
}

func logLevel(name string) slog.Level {
	if verboseFlag {
		return slog.LevelDebug
	}

	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
