package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/logblock/internal/config"
	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/metrics"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/output"
	"github.com/telhawk-systems/logblock/internal/service"
)

type runOptions struct {
	accessLog string
	startDate string
	duration  string
	threshold string
}

func runDetection(cmd *cobra.Command, opts *rootOptions, run *runOptions) error {
	if !output.ValidFormat(opts.output) {
		return &models.ValidationError{Field: "output", Value: opts.output, Reason: "expected table, json or yaml"}
	}

	// Arguments are validated before any configuration or storage is touched
	rc, err := config.ParseRunArgs(config.RunArgs{
		AccessLog:  run.accessLog,
		StartDate:  run.startDate,
		Duration:   run.duration,
		Threshold:  run.threshold,
		ConfigPath: opts.configPath,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, rc.ConfigPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	coordinatorOpts := []service.Option{
		service.WithLogger(a.logger),
		service.WithSinks(a.sinks...),
	}

	var recorder *metrics.Recorder
	if a.cfg.Metrics.File != "" {
		recorder = metrics.NewRecorder()
		coordinatorOpts = append(coordinatorOpts, service.WithObserver(recorder))
	}

	result, runErr := service.NewRunCoordinator(a.repo, coordinatorOpts...).Run(ctx, rc)

	if recorder != nil {
		recorder.RunFinished(runErr, time.Now())
		if err := recorder.WriteTextfile(a.cfg.Metrics.File); err != nil {
			a.logger.WarnContext(ctx, "Failed to write metrics file", logging.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if opts.output == output.FormatTable {
		if result.Ingested {
			fmt.Fprintf(out, "Ingested %d records from %s\n", result.RecordsIngested, result.LogFile.Name)
		} else {
			fmt.Fprintf(out, "%s already ingested, ingestion skipped\n", result.LogFile.Name)
		}
		fmt.Fprintf(out, "Window %s, threshold %d: %d blocked\n\n", result.Window, result.Threshold, len(result.Decisions))
	}

	return output.Decisions(out, opts.output, result.Decisions)
}
