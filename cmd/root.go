// Package cmd implements the logblock command line.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/logblock/internal/config"
	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/output"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

type rootOptions struct {
	configPath string
	output     string
}

// NewRootCmd builds the command tree. The root command itself performs a
// detection run.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	run := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "logblock",
		Short: "Find and block noisy clients in web access logs",
		Long: `logblock loads a pipe-delimited web access log into PostgreSQL and
records every client IP whose request count inside a time window reaches
a threshold.

A log file is ingested once per file name; later runs against the same
file reuse the stored requests and only repeat detection.

Examples:
  logblock --accesslog=/var/log/access.log --startDate=2017-01-01.13:00:00 --duration=hourly --threshold=100
  logblock --accesslog=access.log --startDate=2017-01-01.00:00:00 --duration=daily --threshold=250 --output=json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetection(cmd, opts, run)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath, "credentials file")
	rootCmd.PersistentFlags().StringVar(&opts.output, "output", output.FormatTable, "output format: table, json, yaml")

	rootCmd.Flags().StringVar(&run.accessLog, "accesslog", "", "path to the access log")
	rootCmd.Flags().StringVar(&run.startDate, "startDate", "", "window start (yyyy-MM-dd.HH:mm:ss)")
	rootCmd.Flags().StringVar(&run.duration, "duration", "", "window length: hourly or daily")
	rootCmd.Flags().StringVar(&run.threshold, "threshold", "", "minimum requests in the window to block an IP")

	rootCmd.AddCommand(newBlockedCmd(opts))
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newMigrateCmd(opts))

	return rootCmd
}

// Execute runs the command line and reports a failure once, to the user and
// to the log.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		output.Error("%v", err)
		slog.Error("Run failed", logging.Error(err))
	}
	return err
}
