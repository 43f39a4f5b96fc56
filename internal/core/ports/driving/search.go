package driving

import (
	"context"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// RetrievalService runs the zoom-in search pipeline.
type RetrievalService interface {
	// Search narrows the record store to the content items relevant to query.
	// On a stage failure the partial envelope is returned alongside the error.
	// observer may be nil.
	Search(ctx context.Context, query string, opts domain.SearchOptions, observer ProgressObserver) (*domain.SearchEnvelope, error)
}

// ProgressObserver receives state transitions of a running search.
// Calls are made synchronously from the searching goroutine.
type ProgressObserver interface {
	OnProgress(event domain.ProgressEvent)
}

// ProgressFunc adapts a function to a ProgressObserver.
type ProgressFunc func(event domain.ProgressEvent)

// OnProgress implements ProgressObserver.
func (f ProgressFunc) OnProgress(event domain.ProgressEvent) {
	f(event)
}
