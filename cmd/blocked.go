package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/output"
	"github.com/telhawk-systems/logblock/internal/repository"
)

func newBlockedCmd(opts *rootOptions) *cobra.Command {
	var accessLog string

	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "List stored block decisions for an access log",
		Long: `List every block decision recorded for an access log, across all
windows and thresholds. Only the base name of --accesslog is used.

Examples:
  logblock blocked --accesslog=access.log
  logblock blocked --accesslog=/var/log/access.log --output=yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(accessLog) == "" {
				return &models.ValidationError{Field: "accesslog", Reason: "a log file name is required"}
			}
			if !output.ValidFormat(opts.output) {
				return &models.ValidationError{Field: "output", Value: opts.output, Reason: "expected table, json or yaml"}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, opts.configPath, false)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.cfg.UsesPostgres() && opts.output == output.FormatTable {
				output.Warn("The in-memory repository only holds logs ingested by this process")
			}

			name := filepath.Base(accessLog)
			lf, err := a.repo.GetLogFileByName(ctx, name)
			if err != nil {
				if errors.Is(err, repository.ErrLogFileNotFound) {
					return fmt.Errorf("%s has not been ingested", name)
				}
				return &models.PersistenceError{Op: "log file lookup", Err: err}
			}

			decisions, err := a.repo.ListBlockDecisions(ctx, lf.ID)
			if err != nil {
				return &models.PersistenceError{Op: "decision listing", Err: err}
			}

			return output.Decisions(cmd.OutOrStdout(), opts.output, decisions)
		},
	}

	cmd.Flags().StringVar(&accessLog, "accesslog", "", "access log name or path")

	return cmd
}
