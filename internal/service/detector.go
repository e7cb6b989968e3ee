package service

import (
	"context"

	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/repository"
)

// BlockDetector finds the IPs that met the threshold inside a window and
// records a decision for each.
type BlockDetector struct {
	repo   repository.Repository
	logger *logging.Logger
}

func NewBlockDetector(repo repository.Repository, logger *logging.Logger) *BlockDetector {
	if logger == nil {
		logger = logging.Default()
	}
	return &BlockDetector{repo: repo, logger: logger}
}

// DetectAndRecord aggregates the requests of logFileID over the half-open
// window w, keeps the IPs with at least threshold requests, and upserts one
// decision per IP in a single batch. No qualifying IP is not an error.
func (d *BlockDetector) DetectAndRecord(ctx context.Context, logFileID int64, w models.Window, threshold int) ([]models.BlockDecision, error) {
	counts, err := d.repo.CountRequestsByIP(ctx, logFileID, w.Start, w.End(), threshold)
	if err != nil {
		return nil, &models.PersistenceError{Op: "request aggregation", Err: err}
	}

	decisions := make([]models.BlockDecision, 0, len(counts))
	for _, c := range counts {
		// inclusive: a count equal to threshold blocks
		if c.Count < threshold {
			continue
		}
		decisions = append(decisions, models.NewBlockDecision(logFileID, c, w, threshold))
	}

	if len(decisions) == 0 {
		d.logger.InfoContext(ctx, "No IP met the threshold",
			logging.LogFileID(logFileID),
			logging.WindowStart(w.Start),
			logging.Duration(w.Duration.String()),
			logging.Threshold(threshold),
		)
		return decisions, nil
	}

	if err := d.repo.UpsertBlockDecisions(ctx, decisions); err != nil {
		return nil, &models.PersistenceError{Op: "block decision upsert", Err: err}
	}

	for _, decision := range decisions {
		d.logger.InfoContext(ctx, decision.Message,
			logging.IP(decision.IP),
			logging.Count(decision.RequestCount),
			logging.Threshold(decision.Threshold),
			logging.WindowStart(decision.WindowStart),
			logging.Duration(decision.Duration.String()),
		)
	}

	return decisions, nil
}
