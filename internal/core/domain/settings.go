package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an oracle service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// AllAIProviders returns every supported provider.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama}
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// APIKeyEnv returns the environment variable consulted for the provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// OracleRole selects which oracle backend a stage uses.
type OracleRole string

// Oracle roles. The classifier scores folders and files, the extractor
// selects content items.
const (
	OracleClassifier OracleRole = "classifier"
	OracleExtractor  OracleRole = "extractor"
)

// OracleSettings holds the configuration of one oracle backend.
type OracleSettings struct {
	// Provider is the oracle service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (required for Ollama, optional otherwise).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the oracle has a provider and credentials.
func (o OracleSettings) IsConfigured() bool {
	if !o.Provider.IsValid() {
		return false
	}
	if o.Provider.RequiresAPIKey() && o.APIKey == "" {
		return false
	}
	return true
}

// WithEnvKey returns a copy whose empty API key is filled from the
// provider's environment variable.
func (o OracleSettings) WithEnvKey(getenv func(string) string) OracleSettings {
	if o.APIKey == "" && o.Provider.APIKeyEnv() != "" {
		o.APIKey = getenv(o.Provider.APIKeyEnv())
	}
	return o
}

// DefaultOracleModels returns the default model per provider and role.
// Classification runs on a cheap model, extraction on a stronger one.
func DefaultOracleModels() map[OracleRole]map[AIProvider]string {
	return map[OracleRole]map[AIProvider]string{
		OracleClassifier: {
			AIProviderOpenAI:    "gpt-4o-mini",
			AIProviderAnthropic: "claude-3-5-haiku-latest",
			AIProviderOllama:    "llama3.2",
		},
		OracleExtractor: {
			AIProviderOpenAI:    "gpt-4o",
			AIProviderAnthropic: "claude-3-5-sonnet-latest",
			AIProviderOllama:    "llama3.1:70b",
		},
	}
}

// RetrievalSettings holds pipeline defaults.
type RetrievalSettings struct {
	// Threshold is the minimum folder/file score (default 0.5).
	Threshold float64

	// CatchAllFolder is never scored.
	CatchAllFolder string

	// StageTimeout bounds each stage.
	StageTimeout time.Duration

	// MaxItemChars truncates content items in the extractor prompt.
	MaxItemChars int

	// RateLimit caps oracle requests per second (0 = unlimited).
	RateLimit float64
}

// StorageBackend identifies a record store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite     StorageBackend = "sqlite"
	StorageBolt       StorageBackend = "bolt"
	StorageFilesystem StorageBackend = "filesystem"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageBolt, StorageFilesystem:
		return true
	default:
		return false
	}
}

// IsWritable returns true if records can be imported into the backend.
func (b StorageBackend) IsWritable() bool {
	return b == StorageSQLite || b == StorageBolt
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// StorageSettings selects the record store.
type StorageSettings struct {
	// Backend is the record store implementation.
	Backend StorageBackend

	// Path is the database file or root directory. Empty uses the data directory.
	Path string
}

// AppSettings aggregates all application settings.
type AppSettings struct {
	Classifier OracleSettings
	Extractor  OracleSettings
	Retrieval  RetrievalSettings
	Storage    StorageSettings
}

// Oracle returns the oracle settings for a role.
func (s *AppSettings) Oracle(role OracleRole) OracleSettings {
	if role == OracleExtractor {
		return s.Extractor
	}
	return s.Classifier
}

// DefaultAppSettings returns default application settings.
func DefaultAppSettings() AppSettings {
	models := DefaultOracleModels()
	return AppSettings{
		Classifier: OracleSettings{
			Provider: AIProviderOpenAI,
			Model:    models[OracleClassifier][AIProviderOpenAI],
		},
		Extractor: OracleSettings{
			Provider: AIProviderOpenAI,
			Model:    models[OracleExtractor][AIProviderOpenAI],
		},
		Retrieval: RetrievalSettings{
			Threshold:      DefaultThreshold,
			CatchAllFolder: DefaultCatchAllFolder,
			StageTimeout:   DefaultStageTimeout,
			MaxItemChars:   DefaultMaxItemChars,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}
