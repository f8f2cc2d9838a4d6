package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/buflib/cmd/buflibctl/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "buflibctl",
	Short: "Drive and inspect buflib memory pools",
	Long: `buflibctl runs workloads against a buflib pool: a fixed buffer split into
relocatable, handle-addressed allocations that are compacted on demand.
It reports allocator statistics and checks every pool invariant as it goes.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return logger.Init(logger.Options{
			Enabled: verbose || logFile != "",
			File:    logFile,
			Level:   level,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file instead of stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(rootCmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
