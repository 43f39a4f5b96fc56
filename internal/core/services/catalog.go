package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService browses folders and extraction records.
type CatalogService struct {
	store driven.RecordStore
}

// NewCatalogService creates a catalog service.
func NewCatalogService(store driven.RecordStore) *CatalogService {
	return &CatalogService{store: store}
}

// ListFolders returns every folder with its metadata, sorted by ID.
func (s *CatalogService) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	ids, err := s.store.ListSubfolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	folders := make([]domain.Folder, 0, len(ids))
	for _, id := range ids {
		folder, err := loadFolder(ctx, s.store, id)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].ID < folders[j].ID })
	return folders, nil
}

// GetFile returns the parsed extraction record for a file ID.
func (s *CatalogService) GetFile(ctx context.Context, fileID string) (domain.Extraction, error) {
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return loadExtraction(ctx, s.store, fileID)
}
