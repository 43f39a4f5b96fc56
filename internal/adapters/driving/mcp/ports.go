package mcp

import (
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Retrieval runs zoom-in searches.
	Retrieval driving.RetrievalService

	// Catalog browses folders and records. Optional; without it the
	// resources return empty listings.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
