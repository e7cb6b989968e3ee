package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/logblock/internal/config"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/output"
	"github.com/telhawk-systems/logblock/internal/seeder"
)

func newSeedCmd() *cobra.Command {
	var (
		outPath  string
		lines    int
		start    string
		span     string
		hotIP    string
		hotCount int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a synthetic access log",
		Long: `Generate an access log in the pipe-delimited format with random clients,
optionally adding a burst of requests from one IP.

Examples:
  logblock seed --out data/access.log --lines 10000 --start 2017-01-01.00:00:00 --span 24h
  logblock seed --out data/burst.log --lines 500 --start 2017-01-01.13:00:00 --span 1h --hot-ip 192.168.1.1 --hot-count 150`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return &models.ValidationError{Field: "out", Reason: "an output path is required"}
			}

			startAt, err := config.ParseStartDate(start)
			if err != nil {
				return &models.ValidationError{Field: "start", Value: start, Reason: "expected yyyy-MM-dd.HH:mm:ss"}
			}

			spanDur, err := time.ParseDuration(span)
			if err != nil || spanDur <= 0 {
				return &models.ValidationError{Field: "span", Value: span, Reason: "expected a positive duration such as 1h or 24h"}
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()

			n, err := seeder.Generate(f, seeder.Options{
				Lines:    lines,
				Start:    startAt,
				Span:     spanDur,
				HotIP:    hotIP,
				HotCount: hotCount,
				Seed:     seed,
			})
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", outPath, err)
			}

			output.Success("Wrote %d lines to %s", n, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output file")
	cmd.Flags().IntVar(&lines, "lines", 1000, "number of background requests")
	cmd.Flags().StringVar(&start, "start", "", "first timestamp (yyyy-MM-dd.HH:mm:ss)")
	cmd.Flags().StringVar(&span, "span", "24h", "time span covered by the log")
	cmd.Flags().StringVar(&hotIP, "hot-ip", "", "IP that receives a burst of requests")
	cmd.Flags().IntVar(&hotCount, "hot-count", 0, "number of burst requests from --hot-ip")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 for a random one)")

	return cmd
}
