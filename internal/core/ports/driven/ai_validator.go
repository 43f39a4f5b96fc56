package driven

import "github.com/custodia-labs/zoomin/internal/core/domain"

// OracleValidator validates oracle provider configurations.
// Implementations verify connectivity to the underlying AI services.
type OracleValidator interface {
	// ValidateOracle pings the configured provider.
	// Returns domain.ErrOracleNotConfigured if settings are incomplete.
	ValidateOracle(settings domain.OracleSettings) error
}
