package repository

import (
	"context"
	"errors"
	"time"

	"github.com/telhawk-systems/logblock/internal/models"
)

var (
	ErrLogFileNotFound = errors.New("log file not found")
	ErrLogFileExists   = errors.New("log file already ingested")
)

// RecordSource streams parsed records into IngestLogFile.
// parser.Scanner satisfies it.
type RecordSource interface {
	Next() bool
	Record() models.RequestRecord
	Err() error
}

// Repository is the persistence port used by the ingestion and detection
// pipeline.
type Repository interface {
	// CountLogFiles returns the number of catalog rows named name.
	CountLogFiles(ctx context.Context, name string) (int, error)
	GetLogFileByName(ctx context.Context, name string) (*models.LogFile, error)

	// IngestLogFile creates the catalog row for name and stores every record
	// from src in a single transaction. It returns the new log file and the
	// number of stored records. If src fails, nothing is stored and src.Err()
	// is returned.
	IngestLogFile(ctx context.Context, name string, src RecordSource) (*models.LogFile, int64, error)
	CountRequests(ctx context.Context, logFileID int64) (int64, error)

	// CountRequestsByIP returns per-IP request counts for rows of logFileID in
	// [start, end) whose count is at least threshold, ordered by count
	// descending then IP.
	CountRequestsByIP(ctx context.Context, logFileID int64, start, end time.Time, threshold int) ([]models.IPCount, error)

	// UpsertBlockDecisions stores decisions in a single transaction,
	// replacing rows with the same DecisionKey.
	UpsertBlockDecisions(ctx context.Context, decisions []models.BlockDecision) error
	ListBlockDecisions(ctx context.Context, logFileID int64) ([]models.BlockDecision, error)
	Close()
}
