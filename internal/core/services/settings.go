package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyClassifierProvider = "oracle.classifier.provider"
	keyClassifierModel    = "oracle.classifier.model"
	keyClassifierBaseURL  = "oracle.classifier.base_url"
	keyClassifierAPIKey   = "oracle.classifier.api_key"
	keyExtractorProvider  = "oracle.extractor.provider"
	keyExtractorModel     = "oracle.extractor.model"
	keyExtractorBaseURL   = "oracle.extractor.base_url"
	keyExtractorAPIKey    = "oracle.extractor.api_key"
	keyRateLimit          = "oracle.rate_limit"
	keyThreshold          = "retrieval.threshold"
	keyCatchAllFolder     = "retrieval.catch_all_folder"
	keyStageTimeout       = "retrieval.stage_timeout_seconds"
	keyMaxItemChars       = "retrieval.max_item_chars"
	keyStorageBackend     = "storage.backend"
	keyStoragePath        = "storage.path"
)

const defaultOllamaURL = "http://localhost:11434"

type oracleKeys struct {
	provider, model, baseURL, apiKey string
}

func keysFor(role domain.OracleRole) oracleKeys {
	if role == domain.OracleExtractor {
		return oracleKeys{keyExtractorProvider, keyExtractorModel, keyExtractorBaseURL, keyExtractorAPIKey}
	}
	return oracleKeys{keyClassifierProvider, keyClassifierModel, keyClassifierBaseURL, keyClassifierAPIKey}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.OracleValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The validator is optional.
func NewSettingsService(configStore driven.ConfigStore, validator driven.OracleValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// API keys are as stored; environment keys are applied by Effective.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Classifier: s.getOracle(domain.OracleClassifier, defaults.Classifier),
		Extractor:  s.getOracle(domain.OracleExtractor, defaults.Extractor),
		Retrieval: domain.RetrievalSettings{
			Threshold:      s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
			CatchAllFolder: s.getString(keyCatchAllFolder, defaults.Retrieval.CatchAllFolder),
			StageTimeout:   s.getSeconds(keyStageTimeout, defaults.Retrieval.StageTimeout),
			MaxItemChars:   s.getInt(keyMaxItemChars, defaults.Retrieval.MaxItemChars),
			RateLimit:      s.getFloat(keyRateLimit, defaults.Retrieval.RateLimit),
		},
		Storage: domain.StorageSettings{
			Backend: s.getBackend(defaults.Storage.Backend),
			Path:    s.configStore.GetString(keyStoragePath),
		},
	}

	return settings, nil
}

// Effective returns settings with missing API keys filled from the environment.
func (s *SettingsService) Effective() (*domain.AppSettings, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	settings.Classifier = settings.Classifier.WithEnvKey(s.getenv)
	settings.Extractor = settings.Extractor.WithEnvKey(s.getenv)
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, role := range []domain.OracleRole{domain.OracleClassifier, domain.OracleExtractor} {
		if err := s.saveOracle(role, settings.Oracle(role)); err != nil {
			return err
		}
	}

	r := settings.Retrieval
	if err := s.configStore.Set(keyThreshold, r.Threshold); err != nil {
		return fmt.Errorf("save threshold: %w", err)
	}
	if err := s.configStore.Set(keyCatchAllFolder, r.CatchAllFolder); err != nil {
		return fmt.Errorf("save catch-all folder: %w", err)
	}
	if err := s.configStore.Set(keyStageTimeout, int(r.StageTimeout/time.Second)); err != nil {
		return fmt.Errorf("save stage timeout: %w", err)
	}
	if err := s.configStore.Set(keyMaxItemChars, r.MaxItemChars); err != nil {
		return fmt.Errorf("save max item chars: %w", err)
	}
	if err := s.configStore.Set(keyRateLimit, r.RateLimit); err != nil {
		return fmt.Errorf("save rate limit: %w", err)
	}

	if err := s.configStore.Set(keyStorageBackend, settings.Storage.Backend.String()); err != nil {
		return fmt.Errorf("save storage backend: %w", err)
	}
	if err := s.configStore.Set(keyStoragePath, settings.Storage.Path); err != nil {
		return fmt.Errorf("save storage path: %w", err)
	}

	return nil
}

func (s *SettingsService) saveOracle(role domain.OracleRole, o domain.OracleSettings) error {
	keys := keysFor(role)
	if err := s.configStore.Set(keys.provider, o.Provider.String()); err != nil {
		return fmt.Errorf("save %s provider: %w", role, err)
	}
	if err := s.configStore.Set(keys.model, o.Model); err != nil {
		return fmt.Errorf("save %s model: %w", role, err)
	}
	if err := s.configStore.Set(keys.baseURL, o.BaseURL); err != nil {
		return fmt.Errorf("save %s base_url: %w", role, err)
	}
	if o.APIKey != "" {
		if err := s.configStore.Set(keys.apiKey, o.APIKey); err != nil {
			return fmt.Errorf("save %s api_key: %w", role, err)
		}
	}
	return nil
}

// SetOracle configures the provider of one oracle role.
// An empty model selects the role's default for the provider. An empty
// API key is accepted when the provider's environment variable is set.
func (s *SettingsService) SetOracle(role domain.OracleRole, provider domain.AIProvider, model, apiKey string) error {
	if role != domain.OracleClassifier && role != domain.OracleExtractor {
		return fmt.Errorf("%w: oracle role %q", domain.ErrInvalidInput, role)
	}
	if !provider.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(provider.APIKeyEnv()) == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	o := domain.OracleSettings{Provider: provider, Model: model, APIKey: apiKey}
	if o.Model == "" {
		o.Model = domain.DefaultOracleModels()[role][provider]
	}
	if provider.IsLocal() {
		o.BaseURL = settings.Oracle(role).BaseURL
		if o.BaseURL == "" {
			o.BaseURL = defaultOllamaURL
		}
	}

	if role == domain.OracleExtractor {
		settings.Extractor = o
	} else {
		settings.Classifier = o
	}

	// Drop a stale key from another provider.
	if apiKey == "" {
		if err := s.configStore.Set(keysFor(role).apiKey, ""); err != nil {
			return fmt.Errorf("clear %s api_key: %w", role, err)
		}
	}

	return s.Save(settings)
}

// SetRetrieval updates the retrieval pipeline defaults.
// Zero fields keep their current value.
func (s *SettingsService) SetRetrieval(retrieval domain.RetrievalSettings) error {
	if retrieval.Threshold < 0 || retrieval.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0, 1]", domain.ErrInvalidInput, retrieval.Threshold)
	}
	if retrieval.StageTimeout < 0 || retrieval.MaxItemChars < 0 || retrieval.RateLimit < 0 {
		return fmt.Errorf("%w: negative retrieval setting", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval = mergeRetrieval(retrieval, settings.Retrieval)
	return s.Save(settings)
}

// mergeRetrieval overlays the non-zero fields of update on current.
func mergeRetrieval(update, current domain.RetrievalSettings) domain.RetrievalSettings {
	if update.Threshold > 0 {
		current.Threshold = update.Threshold
	}
	if update.CatchAllFolder != "" {
		current.CatchAllFolder = update.CatchAllFolder
	}
	if update.StageTimeout > 0 {
		current.StageTimeout = update.StageTimeout
	}
	if update.MaxItemChars > 0 {
		current.MaxItemChars = update.MaxItemChars
	}
	if update.RateLimit > 0 {
		current.RateLimit = update.RateLimit
	}
	return current
}

// SetStorage selects the record store backend.
func (s *SettingsService) SetStorage(storage domain.StorageSettings) error {
	if !storage.Backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, storage.Backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Storage = storage
	return s.Save(settings)
}

// Validate checks that both oracle roles are configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Effective()
	if err != nil {
		return err
	}

	for _, role := range []domain.OracleRole{domain.OracleClassifier, domain.OracleExtractor} {
		if !settings.Oracle(role).IsConfigured() {
			return fmt.Errorf("%w: %s oracle (%s)", domain.ErrOracleNotConfigured, role, settings.Oracle(role).Provider)
		}
	}
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, settings.Storage.Backend)
	}
	return nil
}

// ValidateOracle pings the provider configured for a role.
func (s *SettingsService) ValidateOracle(role domain.OracleRole) error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Effective()
	if err != nil {
		return err
	}
	return s.validator.ValidateOracle(settings.Oracle(role))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getOracle(role domain.OracleRole, defaults domain.OracleSettings) domain.OracleSettings {
	keys := keysFor(role)
	provider := s.getProvider(keys.provider, defaults.Provider)
	model := s.configStore.GetString(keys.model)
	if model == "" {
		model = domain.DefaultOracleModels()[role][provider]
	}
	return domain.OracleSettings{
		Provider: provider,
		Model:    model,
		BaseURL:  s.configStore.GetString(keys.baseURL),
		APIKey:   s.configStore.GetString(keys.apiKey),
	}
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch raw.(type) {
	case float64, float32, int, int64:
		return s.configStore.GetFloat(key)
	default:
		return defaultVal
	}
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
