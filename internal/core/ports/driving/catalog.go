package driving

import (
	"context"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// CatalogService browses the record store without consulting an oracle.
type CatalogService interface {
	// ListFolders returns every folder with its metadata, sorted by ID.
	// Folders without metadata are included with an empty summary.
	ListFolders(ctx context.Context) ([]domain.Folder, error)

	// GetFile returns the parsed extraction record for a file ID.
	GetFile(ctx context.Context, fileID string) (domain.Extraction, error)
}
