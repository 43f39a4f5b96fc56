// Command zoomin answers questions over pre-extracted document records by
// narrowing folders, then files, then content items with an LLM oracle.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/ai"
	"github.com/custodia-labs/zoomin/internal/adapters/driven/config/file"
	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/cli"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/services"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// version is set at build time via -ldflags.
var version = ""

// recordStore is a record store the application owns and must close.
type recordStore interface {
	driven.RecordStore
	Close() error
}

func main() {
	cli.SetVersion(version)
	cli.LoadEnv()

	cleanup, err := wire()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	err = cli.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// wire builds the services and installs them into the CLI. Services whose
// configuration is missing stay nil; their commands report the problem.
func wire() (func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Effective()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	promptDir := filepath.Join(filepath.Dir(configStore.Path()), "prompts")
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("prompt store: %w", err)
	}

	svc := cli.Services{
		Settings:  settingsService,
		Prompts:   prompts,
		PromptDir: promptDir,
		Storage:   settings.Storage,
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := openStore(settings.Storage)
	if err != nil {
		logger.Warn("record store unavailable: %v", err)
		svc.RetrievalErr = err
		cli.SetServices(svc)
		return cleanup, nil
	}
	closers = append(closers, func() { _ = store.Close() })

	svc.Catalog = services.NewCatalogService(store)
	if writer, ok := store.(driven.RecordWriter); ok && settings.Storage.Backend.IsWritable() {
		svc.Import = services.NewImportService(writer)
	}

	backends, err := ai.CreateOracleBackends(*settings)
	if err != nil {
		logger.Warn("oracle not configured: %v", err)
		svc.RetrievalErr = err
		cli.SetServices(svc)
		return cleanup, nil
	}
	closers = append(closers, backends.Close)

	oracle, err := services.NewOracle(backends.Classifier, backends.Extractor, prompts)
	if err != nil {
		return cleanup, fmt.Errorf("creating oracle: %w", err)
	}
	retrieval, err := services.NewSearchService(store, oracle, settings.Retrieval)
	if err != nil {
		return cleanup, fmt.Errorf("creating search service: %w", err)
	}
	svc.Retrieval = retrieval

	cli.SetServices(svc)
	return cleanup, nil
}

// openStore opens the configured record store backend.
func openStore(cfg domain.StorageSettings) (recordStore, error) {
	var (
		store recordStore
		err   error
	)
	switch cfg.Backend {
	case domain.StorageBolt:
		store, err = bolt.NewStore(cfg.Path)
	case domain.StorageFilesystem:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: filesystem backend needs a path; run 'zoomin settings storage'",
				domain.ErrStoreUnavailable)
		}
		store, err = filesystem.NewStore(cfg.Path)
	case domain.StorageSQLite, "":
		store, err = sqlite.NewStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w; run 'zoomin settings storage'", domain.ErrStoreUnavailable, err)
	}
	return store, nil
}
