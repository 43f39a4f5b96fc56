package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// FolderScorer runs stage 1: score every indexed folder against the query.
type FolderScorer struct {
	store  driven.RecordStore
	oracle *Oracle
}

// NewFolderScorer creates a folder scorer.
func NewFolderScorer(store driven.RecordStore, oracle *Oracle) *FolderScorer {
	return &FolderScorer{store: store, oracle: oracle}
}

// Score returns the folders scoring at least opts.Threshold, best first.
// The catch-all folder and folders without a summary are never scored.
// If no folder is left to score the oracle is not called.
func (s *FolderScorer) Score(
	ctx context.Context, query string, opts domain.SearchOptions, diag *domain.Diagnostics,
) ([]domain.ScoredFolder, error) {
	ids, err := s.store.ListSubfolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	candidates := make([]domain.Folder, 0, len(ids))
	for _, id := range ids {
		if strings.EqualFold(id, opts.CatchAllFolder) {
			logger.Debug("Skipping catch-all folder %q", id)
			continue
		}
		folder, err := loadFolder(ctx, s.store, id)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				diag.Warnings = append(diag.Warnings, fmt.Sprintf("folder %s: %v", id, err))
				continue
			}
			return nil, err
		}
		if !folder.IsIndexed() {
			logger.Debug("Skipping unindexed folder %q", id)
			continue
		}
		candidates = append(candidates, folder)
	}

	logger.Debug("Folder candidates: %d of %d", len(candidates), len(ids))
	if len(candidates) == 0 {
		return []domain.ScoredFolder{}, nil
	}

	verdict, err := s.oracle.ScoreFolders(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	recordRejected(diag, "folder scoring", verdict.Rejected)

	scored := make([]domain.ScoredFolder, 0, len(candidates))
	for _, f := range candidates {
		score, ok := verdict.Scores[f.ID]
		if !ok || score < opts.Threshold {
			continue
		}
		scored = append(scored, domain.ScoredFolder{Folder: f, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Folder.ID < scored[j].Folder.ID
	})

	logger.Debug("Folders above %.2f: %d", opts.Threshold, len(scored))
	return scored, nil
}

// loadFolder reads and decodes a folder's metadata.
// A folder without metadata is returned unindexed.
func loadFolder(ctx context.Context, store driven.RecordStore, id string) (domain.Folder, error) {
	blob, err := store.GetMetadata(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Folder{ID: id}, nil
	}
	if err != nil {
		return domain.Folder{}, fmt.Errorf("get metadata %s: %w", id, err)
	}
	meta, err := domain.ParseFolderMetadata(blob)
	if err != nil {
		return domain.Folder{}, err
	}
	return meta.Folder(id), nil
}

// recordRejected counts oracle entries dropped by validation.
func recordRejected(diag *domain.Diagnostics, stage string, rejected []string) {
	if len(rejected) == 0 {
		return
	}
	diag.InvalidOracleEntries += len(rejected)
	for _, r := range rejected {
		logger.Warn("%s: rejected oracle entry: %s", stage, r)
		diag.Warnings = append(diag.Warnings, stage+": "+r)
	}
}
