package driving

import (
	"context"

	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// ImportService copies folders and extraction records into the configured store.
type ImportService interface {
	// Import copies every folder's metadata and extraction records from src.
	// Invalid records are skipped and reported, not fatal.
	Import(ctx context.Context, src driven.RecordStore) (*ImportReport, error)
}

// ImportReport summarises an import run.
type ImportReport struct {
	// Folders is the number of folders whose metadata was written.
	Folders int

	// Files is the number of extraction records written.
	Files int

	// Invalid is the number of records that failed validation.
	Invalid int

	// Skipped describes each record that was not imported.
	Skipped []string
}
