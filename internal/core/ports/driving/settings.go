package driving

import "github.com/custodia-labs/zoomin/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetOracle configures the provider of one oracle role.
	SetOracle(role domain.OracleRole, provider domain.AIProvider, model, apiKey string) error

	// SetRetrieval updates the retrieval pipeline defaults.
	SetRetrieval(retrieval domain.RetrievalSettings) error

	// SetStorage selects the record store backend.
	SetStorage(storage domain.StorageSettings) error

	// Validate checks that both oracle roles are configured.
	Validate() error

	// ValidateOracle pings the provider configured for a role.
	ValidateOracle(role domain.OracleRole) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
