package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// importConcurrency bounds parallel record validation.
const importConcurrency = 8

// ImportService copies records from a source store into a writable store.
type ImportService struct {
	dst driven.RecordWriter
}

// NewImportService creates an import service writing to dst.
func NewImportService(dst driven.RecordWriter) *ImportService {
	return &ImportService{dst: dst}
}

// Import copies folder metadata and every valid extraction record from src.
// Records are validated in parallel; a record that does not parse is skipped.
func (s *ImportService) Import(ctx context.Context, src driven.RecordStore) (*driving.ImportReport, error) {
	if s.dst == nil || src == nil {
		return nil, domain.ErrStoreUnavailable
	}

	logger.Section("Import")
	folders, err := src.ListSubfolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source folders: %w", err)
	}

	report := &driving.ImportReport{}
	var mu sync.Mutex
	skip := func(what string, err error) {
		mu.Lock()
		defer mu.Unlock()
		logger.Warn("Skipping %s: %v", what, err)
		report.Skipped = append(report.Skipped, fmt.Sprintf("%s: %v", what, err))
	}

	for _, folderID := range folders {
		if err := s.importMetadata(ctx, src, folderID, report, skip); err != nil {
			return report, err
		}

		records, err := src.ListFiles(ctx, folderID)
		if err != nil {
			return report, fmt.Errorf("list source files %s: %w", folderID, err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(importConcurrency)
		for _, rec := range records {
			if !domain.IsExtractionKey(rec.Key) {
				continue
			}
			g.Go(func() error {
				if _, err := domain.FileIDFromKey(rec.Key); err != nil {
					mu.Lock()
					report.Invalid++
					mu.Unlock()
					skip(rec.Key, err)
					return nil
				}
				if _, err := domain.ParseExtraction(rec.Blob); err != nil {
					mu.Lock()
					report.Invalid++
					mu.Unlock()
					skip(rec.Key, err)
					return nil
				}
				if err := s.dst.PutFile(gctx, rec.Key, rec.Blob); err != nil {
					return fmt.Errorf("write %s: %w", rec.Key, err)
				}
				mu.Lock()
				report.Files++
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
	}

	logger.Info("Imported %d folders, %d files (%d invalid)", report.Folders, report.Files, report.Invalid)
	return report, nil
}

func (s *ImportService) importMetadata(
	ctx context.Context, src driven.RecordStore, folderID string,
	report *driving.ImportReport, skip func(string, error),
) error {
	blob, err := src.GetMetadata(ctx, folderID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Folder %s has no metadata", folderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get source metadata %s: %w", folderID, err)
	}
	if _, err := domain.ParseFolderMetadata(blob); err != nil {
		skip(folderID+" metadata", err)
		return nil
	}
	if err := s.dst.PutMetadata(ctx, folderID, blob); err != nil {
		return fmt.Errorf("write metadata %s: %w", folderID, err)
	}
	report.Folders++
	return nil
}
