package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.RetrievalService = (*SearchService)(nil)

// SearchService orchestrates the zoom-in search:
// Idle -> ScoringFolders -> ScoringFiles -> RetrievingSections -> Done.
// An empty stage output moves straight to Done.
type SearchService struct {
	folders  *FolderScorer
	files    *FileScorer
	sections *SectionRetriever
	resolver *PointerResolver
	defaults domain.RetrievalSettings
	newID    func() string
}

// NewSearchService creates a search service over a record store and an oracle.
// Returns domain.ErrOracleNotConfigured or domain.ErrStoreUnavailable before
// any search can run if either collaborator is missing.
func NewSearchService(
	store driven.RecordStore, oracle *Oracle, defaults domain.RetrievalSettings,
) (*SearchService, error) {
	if oracle == nil {
		return nil, domain.ErrOracleNotConfigured
	}
	if store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return &SearchService{
		folders:  NewFolderScorer(store, oracle),
		files:    NewFileScorer(store, oracle),
		sections: NewSectionRetriever(store, oracle),
		resolver: NewPointerResolver(store),
		defaults: defaults,
		newID:    uuid.NewString,
	}, nil
}

// Search runs the three stages in order and resolves the final pointers.
// Each stage runs under its own deadline. On failure the partial envelope,
// with empty outputs for stages that did not run, is returned with the error.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions, observer driving.ProgressObserver,
) (*domain.SearchEnvelope, error) {
	start := time.Now()
	env := domain.NewSearchEnvelope(s.newID(), strings.TrimSpace(query))
	log := logger.ForSearch(env.SearchID)
	p := progress{searchID: env.SearchID, observer: observer}

	finish := func(msg string, err error) (*domain.SearchEnvelope, error) {
		env.Elapsed = time.Since(start)
		if err != nil {
			log.Warn("Search failed after %s: %v", env.Elapsed, err)
		} else {
			log.Info("%s (%s)", msg, env.Elapsed.Round(time.Millisecond))
		}
		p.emit(domain.StateDone, msg)
		return env, err
	}

	logger.Section("Zoom-in Search")
	log.Debug("Query: %q", env.Query)

	if env.Query == "" {
		return finish("Empty query", nil)
	}
	opts = opts.WithDefaults(s.defaults)
	log.Debug("Threshold %.2f, catch-all %q, stage timeout %s",
		opts.Threshold, opts.CatchAllFolder, opts.StageTimeout)

	// Stage 1
	p.emit(domain.StateScoringFolders, "Scoring folders")
	folders, err := withStageTimeout(ctx, opts.StageTimeout, func(ctx context.Context) ([]domain.ScoredFolder, error) {
		return s.folders.Score(ctx, env.Query, opts, &env.Diagnostics)
	})
	if err != nil {
		return finish("Folder scoring failed", fmt.Errorf("score folders: %w", err))
	}
	env.Folders = folders
	if len(folders) == 0 {
		return finish("No relevant folders", nil)
	}

	// Stage 2
	p.emit(domain.StateScoringFiles, fmt.Sprintf("Scoring files in %d folders", len(folders)))
	files, err := withStageTimeout(ctx, opts.StageTimeout, func(ctx context.Context) ([]domain.ScoredFile, error) {
		return s.files.Score(ctx, env.Query, folders, opts, &env.Diagnostics)
	})
	if err != nil {
		return finish("File scoring failed", fmt.Errorf("score files: %w", err))
	}
	env.Files = files
	if len(files) == 0 {
		return finish("No relevant files", nil)
	}

	// Stage 3, including resolution
	p.emit(domain.StateRetrievingSections, fmt.Sprintf("Retrieving sections from %d files", len(files)))
	results, err := withStageTimeout(ctx, opts.StageTimeout, func(ctx context.Context) ([]domain.ResolvedResult, error) {
		pointers, err := s.sections.Retrieve(ctx, env.Query, files, opts, &env.Diagnostics)
		if err != nil {
			return nil, err
		}
		return s.resolver.Resolve(ctx, pointers, &env.Diagnostics)
	})
	if err != nil {
		return finish("Section retrieval failed", fmt.Errorf("retrieve sections: %w", err))
	}
	env.Results = results

	return finish(fmt.Sprintf("Found %d results", len(results)), nil)
}

func withStageTimeout[T any](
	ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error),
) (T, error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stageCtx)
}

// progress forwards state transitions to an optional observer.
type progress struct {
	searchID string
	observer driving.ProgressObserver
}

func (p progress) emit(state domain.SearchState, msg string) {
	if p.observer == nil {
		return
	}
	p.observer.OnProgress(domain.ProgressEvent{
		SearchID: p.searchID,
		Stage:    state.Stage(),
		State:    state,
		Message:  msg,
		Done:     state == domain.StateDone,
	})
}
