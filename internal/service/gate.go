// Package service implements the ingestion and block-detection pipeline on
// top of the repository port.
package service

import (
	"context"
	"errors"

	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/repository"
)

// IngestionGate answers whether an access log was already loaded.
type IngestionGate struct {
	repo repository.Repository
}

func NewIngestionGate(repo repository.Repository) *IngestionGate {
	return &IngestionGate{repo: repo}
}

// AlreadyIngested reports whether exactly one catalog row exists for
// fileName. fileName must already be the base name.
func (g *IngestionGate) AlreadyIngested(ctx context.Context, fileName string) (bool, error) {
	count, err := g.repo.CountLogFiles(ctx, fileName)
	if err != nil {
		return false, &models.PersistenceError{Op: "ingestion check", Err: err}
	}
	return count == 1, nil
}

// Lookup returns the catalog row for an ingested file.
func (g *IngestionGate) Lookup(ctx context.Context, fileName string) (*models.LogFile, error) {
	lf, err := g.repo.GetLogFileByName(ctx, fileName)
	if err != nil {
		if errors.Is(err, repository.ErrLogFileNotFound) {
			return nil, err
		}
		return nil, &models.PersistenceError{Op: "log file lookup", Err: err}
	}
	return lf, nil
}
