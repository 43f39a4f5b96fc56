package ai

import (
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.OracleValidator = (*ConfigValidator)(nil)

// ConfigValidator validates oracle configurations by pinging the provider.
type ConfigValidator struct{}

// NewConfigValidator creates a new oracle config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateOracle validates one oracle backend configuration.
func (v *ConfigValidator) ValidateOracle(settings domain.OracleSettings) error {
	return ValidateOracleConfig(settings)
}
