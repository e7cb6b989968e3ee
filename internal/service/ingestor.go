package service

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/parser"
	"github.com/telhawk-systems/logblock/internal/repository"
)

// LogIngestor bulk-loads an access log under a new catalog row. It trusts
// the caller to have consulted the IngestionGate.
type LogIngestor struct {
	repo   repository.Repository
	logger *logging.Logger
}

func NewLogIngestor(repo repository.Repository, logger *logging.Logger) *LogIngestor {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogIngestor{repo: repo, logger: logger}
}

// IngestFile opens path and ingests it under its base name.
func (i *LogIngestor) IngestFile(ctx context.Context, path string) (*models.LogFile, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &models.SourceUnavailableError{Path: path, Err: err}
	}
	defer f.Close()

	return i.ingest(ctx, path, filepath.Base(path), f)
}

// Ingest stores every well-formed line read from r under fileName.
func (i *LogIngestor) Ingest(ctx context.Context, fileName string, r io.Reader) (*models.LogFile, int64, error) {
	return i.ingest(ctx, fileName, fileName, r)
}

func (i *LogIngestor) ingest(ctx context.Context, path, fileName string, r io.Reader) (*models.LogFile, int64, error) {
	scanner := parser.NewScanner(r)

	lf, n, err := i.repo.IngestLogFile(ctx, fileName, scanner)
	if err != nil {
		if scanErr := scanner.Err(); scanErr != nil {
			return nil, 0, &models.SourceUnavailableError{Path: path, Err: scanErr}
		}
		return nil, 0, &models.PersistenceError{Op: "ingestion", Err: err}
	}

	i.logger.InfoContext(ctx, "Access log ingested",
		logging.LogFile(lf.Name),
		logging.LogFileID(lf.ID),
		logging.Records(n),
	)

	return lf, n, nil
}
