package mcp

import (
	"context"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	envelope *domain.SearchEnvelope
	err      error
	query    string
	opts     domain.SearchOptions
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
	observer driving.ProgressObserver,
) (*domain.SearchEnvelope, error) {
	m.query = query
	m.opts = opts
	if observer != nil {
		observer.OnProgress(domain.ProgressEvent{State: domain.StateDone, Message: "done", Done: true})
	}
	env := m.envelope
	if env == nil {
		env = domain.NewSearchEnvelope("search-1", query)
	}
	return env, m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	folders []domain.Folder
	files   map[string]domain.Extraction
	err     error
}

func (m *mockCatalogService) ListFolders(_ context.Context) ([]domain.Folder, error) {
	return m.folders, m.err
}

func (m *mockCatalogService) GetFile(_ context.Context, fileID string) (domain.Extraction, error) {
	if m.err != nil {
		return nil, m.err
	}
	ext, ok := m.files[fileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ext, nil
}
