package service

import (
	"context"
	"time"

	"github.com/telhawk-systems/logblock/internal/models"
)

// Run phases reported to a RunObserver.
const (
	PhaseCheck   = "check_ingested"
	PhaseIngest  = "ingest"
	PhaseDetect  = "detect"
	PhasePublish = "publish"
)

// DecisionSink receives the decisions of a run after they are committed.
type DecisionSink interface {
	Name() string
	Publish(ctx context.Context, w models.Window, decisions []models.BlockDecision) error
}

// RunObserver is notified as a run progresses.
type RunObserver interface {
	ObservePhase(phase string, elapsed time.Duration)
	ObserveIngestion(records int64, skipped bool)
	ObserveDecisions(w models.Window, count int)
}

type noopObserver struct{}

func (noopObserver) ObservePhase(string, time.Duration) {}
func (noopObserver) ObserveIngestion(int64, bool) {}
func (noopObserver) ObserveDecisions(models.Window, int) {}
