// Package tui provides an interactive terminal user interface for zoomin.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Retrieval runs zoom-in searches.
	Retrieval driving.RetrievalService

	// Catalog lists folders. Optional; the folders view is empty without it.
	Catalog driving.CatalogService

	// Settings backs the settings view. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
