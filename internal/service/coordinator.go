package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/telhawk-systems/logblock/internal/config"
	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/repository"
)

// RunResult summarizes one invocation.
type RunResult struct {
	RunID           string                 `json:"run_id" yaml:"run_id"`
	LogFile         models.LogFile         `json:"log_file" yaml:"log_file"`
	Ingested        bool                   `json:"ingested" yaml:"ingested"`
	RecordsIngested int64                  `json:"records_ingested" yaml:"records_ingested"`
	Window          models.Window          `json:"window" yaml:"window"`
	Threshold       int                    `json:"threshold" yaml:"threshold"`
	Decisions       []models.BlockDecision `json:"decisions" yaml:"decisions"`
}

// RunCoordinator sequences CHECK_INGESTED, INGEST (when needed), DETECT and
// PUBLISH for one access log. Any failure ends the run.
type RunCoordinator struct {
	gate     *IngestionGate
	ingestor *LogIngestor
	detector *BlockDetector
	sinks    []DecisionSink
	observer RunObserver
	logger   *logging.Logger
}

type Option func(*RunCoordinator)

func WithSinks(sinks ...DecisionSink) Option {
	return func(c *RunCoordinator) {
		c.sinks = append(c.sinks, sinks...)
	}
}

func WithObserver(o RunObserver) Option {
	return func(c *RunCoordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(c *RunCoordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewRunCoordinator(repo repository.Repository, opts ...Option) *RunCoordinator {
	c := &RunCoordinator{
		observer: noopObserver{},
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.gate = NewIngestionGate(repo)
	c.ingestor = NewLogIngestor(repo, c.logger)
	c.detector = NewBlockDetector(repo, c.logger)
	return c
}

// Run executes one invocation with an already validated configuration.
func (c *RunCoordinator) Run(ctx context.Context, rc config.RunConfig) (*RunResult, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	ctx = logging.WithRunID(ctx, runID)

	fileName := rc.FileName()
	result := &RunResult{
		RunID:     runID,
		Window:    rc.Window,
		Threshold: rc.Threshold,
	}

	c.logger.InfoContext(ctx, "Run started",
		logging.LogFile(fileName),
		logging.WindowStart(rc.Window.Start),
		logging.Duration(rc.Window.Duration.String()),
		logging.Threshold(rc.Threshold),
	)

	var lf *models.LogFile
	start := time.Now()
	ingested, err := c.gate.AlreadyIngested(ctx, fileName)
	if err == nil && ingested {
		lf, err = c.gate.Lookup(ctx, fileName)
	}
	if err := c.endPhase(ctx, PhaseCheck, start, err); err != nil {
		return nil, err
	}

	if ingested {
		c.logger.InfoContext(ctx, "Access log already ingested, skipping ingestion",
			logging.LogFile(fileName),
		)
		c.observer.ObserveIngestion(0, true)
	} else {
		start = time.Now()
		var n int64
		lf, n, err = c.ingestor.IngestFile(ctx, rc.AccessLog)
		if err := c.endPhase(ctx, PhaseIngest, start, err); err != nil {
			return nil, err
		}
		result.Ingested = true
		result.RecordsIngested = n
		c.observer.ObserveIngestion(n, false)
	}
	result.LogFile = *lf

	start = time.Now()
	decisions, err := c.detector.DetectAndRecord(ctx, lf.ID, rc.Window, rc.Threshold)
	if err := c.endPhase(ctx, PhaseDetect, start, err); err != nil {
		return nil, err
	}
	result.Decisions = decisions
	c.observer.ObserveDecisions(rc.Window, len(decisions))

	if len(decisions) > 0 && len(c.sinks) > 0 {
		start = time.Now()
		err := c.publish(ctx, rc.Window, decisions)
		if err := c.endPhase(ctx, PhasePublish, start, err); err != nil {
			return nil, err
		}
	}

	c.logger.InfoContext(ctx, "Run complete",
		logging.LogFile(lf.Name),
		logging.LogFileID(lf.ID),
		slog.Bool("ingested", result.Ingested),
		logging.Records(result.RecordsIngested),
		logging.Decisions(len(decisions)),
	)

	return result, nil
}

func (c *RunCoordinator) publish(ctx context.Context, w models.Window, decisions []models.BlockDecision) error {
	for _, sink := range c.sinks {
		if err := sink.Publish(ctx, w, decisions); err != nil {
			return fmt.Errorf("failed to publish decisions to %s: %w", sink.Name(), err)
		}
		c.logger.DebugContext(ctx, "Decisions published",
			logging.Sink(sink.Name()),
			logging.Decisions(len(decisions)),
		)
	}
	return nil
}

// endPhase records the time spent in phase since start and logs err, which
// it returns unchanged.
func (c *RunCoordinator) endPhase(ctx context.Context, phase string, start time.Time, err error) error {
	elapsed := time.Since(start)
	c.observer.ObservePhase(phase, elapsed)

	if err != nil {
		c.logger.ErrorContext(ctx, "Run phase failed",
			logging.Phase(phase),
			logging.Elapsed(elapsed),
			logging.Error(err),
		)
		return err
	}

	c.logger.DebugContext(ctx, "Run phase complete",
		logging.Phase(phase),
		logging.Elapsed(elapsed),
	)
	return nil
}
