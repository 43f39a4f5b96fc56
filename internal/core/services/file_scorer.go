package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// listConcurrency bounds concurrent record store listings.
const listConcurrency = 4

// FileScorer runs stage 2: score the files of the surviving folders.
type FileScorer struct {
	store  driven.RecordStore
	oracle *Oracle
}

// NewFileScorer creates a file scorer.
func NewFileScorer(store driven.RecordStore, oracle *Oracle) *FileScorer {
	return &FileScorer{store: store, oracle: oracle}
}

// Score returns the files scoring at least opts.Threshold, best first.
// Only files inside the given folders are candidates. If none are found
// the oracle is not called.
func (s *FileScorer) Score(
	ctx context.Context, query string, folders []domain.ScoredFolder, opts domain.SearchOptions, diag *domain.Diagnostics,
) ([]domain.ScoredFile, error) {
	candidates, err := s.collect(ctx, folders, diag)
	if err != nil {
		return nil, err
	}

	logger.Debug("File candidates across %d folders: %d", len(folders), len(candidates))
	if len(candidates) == 0 {
		return []domain.ScoredFile{}, nil
	}

	verdict, err := s.oracle.ScoreFiles(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	recordRejected(diag, "file scoring", verdict.Rejected)

	scored := make([]domain.ScoredFile, 0, len(candidates))
	for _, f := range candidates {
		score, ok := verdict.Scores[f.ID]
		if !ok || score < opts.Threshold {
			continue
		}
		scored = append(scored, domain.ScoredFile{File: f, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].File.ID < scored[j].File.ID
	})

	logger.Debug("Files above %.2f: %d", opts.Threshold, len(scored))
	return scored, nil
}

// collect lists the folders concurrently and projects each extraction
// record into a candidate, preserving folder order.
func (s *FileScorer) collect(
	ctx context.Context, folders []domain.ScoredFolder, diag *domain.Diagnostics,
) ([]domain.FileCandidate, error) {
	listings := make([][]driven.StoredRecord, len(folders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, f := range folders {
		g.Go(func() error {
			records, err := s.store.ListFiles(gctx, f.Folder.ID)
			if err != nil {
				return fmt.Errorf("list files %s: %w", f.Folder.ID, err)
			}
			listings[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []domain.FileCandidate
	for i, records := range listings {
		folderID := folders[i].Folder.ID
		for _, rec := range records {
			if !domain.IsExtractionKey(rec.Key) {
				continue
			}
			fileID, err := domain.FileIDFromKey(rec.Key)
			if err != nil {
				skipFile(diag, rec.Key, err)
				continue
			}
			ext, err := domain.ParseExtraction(rec.Blob)
			if err != nil {
				skipFile(diag, fileID, err)
				continue
			}
			header := ext.Header()
			candidates = append(candidates, domain.FileCandidate{
				ID:       fileID,
				Folder:   folderID,
				Title:    header.Title,
				Summary:  header.Summary,
				Keywords: header.Keywords,
			})
		}
	}
	return candidates, nil
}

// skipFile counts a record that could not be read or parsed.
func skipFile(diag *domain.Diagnostics, id string, err error) {
	logger.Warn("Skipping file %s: %v", id, err)
	diag.SkippedFiles++
	diag.Warnings = append(diag.Warnings, fmt.Sprintf("skipped %s: %v", id, err))
}
