package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// settingsInput is where interactive prompts read from.
var settingsInput io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the oracle providers, retrieval defaults and record store.

Use subcommands to configure specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsOracleCmd = &cobra.Command{
	Use:   "oracle [classifier|extractor]",
	Short: "Configure an oracle provider",
	Long: `Configure the provider used by one oracle role.

The classifier scores folders and files (stages 1 and 2) and should be a
cheap, fast model. The extractor selects content items (stage 3) and should
be a stronger model. Without an argument both roles are configured in turn.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(domain.OracleClassifier), string(domain.OracleExtractor)},
	RunE:      runSettingsOracle,
}

var (
	retrievalThreshold    float64
	retrievalCatchAll     string
	retrievalStageTimeout time.Duration
	retrievalMaxItemChars int
	retrievalRateLimit    float64
)

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Set retrieval pipeline defaults",
	Long: `Set the defaults applied to every search. Only the flags given are changed.

Examples:
  zoomin settings retrieval --threshold 0.6
  zoomin settings retrieval --catch-all Misc --stage-timeout 60s
  zoomin settings retrieval --rate-limit 2`,
	Args: cobra.NoArgs,
	RunE: runSettingsRetrieval,
}

var (
	storageBackend string
	storagePath    string
)

var settingsStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Select the record store backend",
	Long: `Select where extraction records are read from.

Backends:
  sqlite      - SQLite database (default, importable)
  bolt        - bbolt key/value file (importable)
  filesystem  - read records directly from a directory tree (read-only)`,
	Args: cobra.NoArgs,
	RunE: runSettingsStorage,
}

func init() {
	f := settingsRetrievalCmd.Flags()
	f.Float64Var(&retrievalThreshold, "threshold", 0, "minimum folder/file score in [0, 1]")
	f.StringVar(&retrievalCatchAll, "catch-all", "", "folder that is never scored")
	f.DurationVar(&retrievalStageTimeout, "stage-timeout", 0, "per-stage timeout")
	f.IntVar(&retrievalMaxItemChars, "max-item-chars", 0, "truncate content items sent to the extractor")
	f.Float64Var(&retrievalRateLimit, "rate-limit", 0, "oracle requests per second")

	settingsStorageCmd.Flags().StringVar(&storageBackend, "backend", "", "sqlite, bolt or filesystem")
	settingsStorageCmd.Flags().StringVar(&storagePath, "path", "", "database directory or record root")
	_ = settingsStorageCmd.MarkFlagRequired("backend")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsOracleCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	settingsCmd.AddCommand(settingsStorageCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	printOracle(cmd, "Classifier", settings.Classifier)
	printOracle(cmd, "Extractor", settings.Extractor)

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Threshold: %.2f\n", r.Threshold)
	cmd.Printf("  Catch-all folder: %s\n", r.CatchAllFolder)
	cmd.Printf("  Stage timeout: %s\n", r.StageTimeout)
	cmd.Printf("  Max item chars: %d\n", r.MaxItemChars)
	if r.RateLimit > 0 {
		cmd.Printf("  Rate limit: %.2f req/s\n", r.RateLimit)
	} else {
		cmd.Println("  Rate limit: unlimited")
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	path := settings.Storage.Path
	if path == "" {
		path = "(default)"
	}
	cmd.Printf("  Path: %s\n", path)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'zoomin settings oracle' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printOracle(cmd *cobra.Command, title string, o domain.OracleSettings) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", o.Provider.Description())
	cmd.Printf("  Model: %s\n", o.Model)
	if o.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", o.BaseURL)
	}
	if o.Provider.RequiresAPIKey() {
		switch {
		case o.APIKey != "":
			cmd.Printf("  API Key: %s\n", maskAPIKey(o.APIKey))
		case os.Getenv(o.Provider.APIKeyEnv()) != "":
			cmd.Printf("  API Key: (from %s)\n", o.Provider.APIKeyEnv())
		default:
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Println()
}

func runSettingsOracle(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	roles := []domain.OracleRole{domain.OracleClassifier, domain.OracleExtractor}
	if len(args) == 1 {
		role := domain.OracleRole(args[0])
		if role != domain.OracleClassifier && role != domain.OracleExtractor {
			return fmt.Errorf("%w: unknown oracle role %q", domain.ErrInvalidInput, args[0])
		}
		roles = []domain.OracleRole{role}
	}

	reader := bufio.NewReader(settingsInput)
	for _, role := range roles {
		if err := configureOracle(cmd, reader, role); err != nil {
			return err
		}
	}
	return nil
}

func configureOracle(cmd *cobra.Command, reader *bufio.Reader, role domain.OracleRole) error {
	cmd.Printf("Select %s provider\n", role)
	providers := domain.AllAIProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultOracleModels()[role][selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		env := selectedProvider.APIKeyEnv()
		if os.Getenv(env) != "" {
			cmd.Printf("Enter API key (blank to use %s): ", env)
		} else {
			cmd.Print("Enter API key: ")
		}
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" && os.Getenv(env) == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetOracle(role, selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s oracle: %w", role, err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateOracle(role); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s oracle validation failed: %w", role, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s oracle configured: %s (%s)\n\n", role, selectedProvider.Description(), model)
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	update := domain.RetrievalSettings{
		Threshold:      retrievalThreshold,
		CatchAllFolder: retrievalCatchAll,
		StageTimeout:   retrievalStageTimeout,
		MaxItemChars:   retrievalMaxItemChars,
		RateLimit:      retrievalRateLimit,
	}
	if update == (domain.RetrievalSettings{}) {
		return errors.New("no retrieval settings given; see 'zoomin settings retrieval --help'")
	}

	if err := settingsService.SetRetrieval(update); err != nil {
		return fmt.Errorf("failed to update retrieval settings: %w", err)
	}
	cmd.Println("Retrieval settings updated.")
	return nil
}

func runSettingsStorage(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	storage := domain.StorageSettings{
		Backend: domain.StorageBackend(strings.ToLower(storageBackend)),
		Path:    storagePath,
	}
	if err := settingsService.SetStorage(storage); err != nil {
		return fmt.Errorf("failed to update storage settings: %w", err)
	}
	cmd.Printf("Storage backend set to: %s\n", storage.Backend)
	if storage.Backend == domain.StorageFilesystem && storage.Path == "" {
		cmd.Println("\nNote: the filesystem backend needs --path pointing at the record root.")
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal,
// otherwise it falls back to a plain line from reader.
func readPassword(reader *bufio.Reader) string {
	if f, ok := settingsInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
