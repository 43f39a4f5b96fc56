// Package cli provides the command-line interface for zoomin.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by main.
var (
	retrievalService driving.RetrievalService
	retrievalErr     error
	catalogService   driving.CatalogService
	importService    driving.ImportService
	settingsService  driving.SettingsService
	promptStore      driven.PromptStore
	promptDir        string
	storageSettings  domain.StorageSettings
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "zoomin",
	Short: "Zoom-in retrieval over pre-extracted document records",
	Long: `zoomin answers a question by narrowing a corpus of extraction records
in three oracle-scored stages: folders, then files, then the individual
sections, tables, charts, images and readings inside the surviving files.

No embeddings or keyword index are used. Each stage asks a language model
to score the candidates against the query.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print stage-by-stage debug output to stderr")
}

// Services groups the driving ports the CLI commands call into.
// Nil services make their commands fail with a configuration error.
type Services struct {
	Retrieval driving.RetrievalService
	// RetrievalErr is why Retrieval could not be built, if it is nil.
	RetrievalErr error
	Catalog      driving.CatalogService
	Import       driving.ImportService
	Settings     driving.SettingsService
	Prompts      driven.PromptStore
	PromptDir    string
	Storage      domain.StorageSettings
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	retrievalErr = s.RetrievalErr
	catalogService = s.Catalog
	importService = s.Import
	settingsService = s.Settings
	promptStore = s.Prompts
	promptDir = s.PromptDir
	storageSettings = s.Storage
}

// retrievalUnavailable reports why commands that search cannot run.
func retrievalUnavailable() error {
	if retrievalErr != nil {
		return fmt.Errorf("search unavailable: %w", retrievalErr)
	}
	return errors.New("search unavailable: retrieval service not configured; run 'zoomin settings oracle'")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// LoadEnv reads API keys from ./.env and ~/.zoomin/.env.
// Variables already set in the environment are not overridden,
// and missing files are ignored.
func LoadEnv() {
	_ = godotenv.Load()
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".zoomin", ".env"))
	}
}

// Execute runs the root command, printing any error to stderr.
// An interrupt cancels the command context, aborting a running search.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
