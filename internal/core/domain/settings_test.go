package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}

func TestAIProvider_Description(t *testing.T) {
	for _, p := range AllAIProviders() {
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

// TestOracleSettings_IsConfigured tests credential requirements per provider
func TestOracleSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings OracleSettings
		expected bool
	}{
		{name: "openai with key", settings: OracleSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, expected: true},
		{name: "openai without key", settings: OracleSettings{Provider: AIProviderOpenAI}, expected: false},
		{name: "anthropic without key", settings: OracleSettings{Provider: AIProviderAnthropic}, expected: false},
		{name: "ollama without key", settings: OracleSettings{Provider: AIProviderOllama}, expected: true},
		{name: "no provider", settings: OracleSettings{APIKey: "sk"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.Classifier.Provider)
	assert.Equal(t, "gpt-4o-mini", s.Classifier.Model)
	assert.Equal(t, "gpt-4o", s.Extractor.Model)
	assert.Equal(t, DefaultThreshold, s.Retrieval.Threshold)
	assert.Equal(t, DefaultCatchAllFolder, s.Retrieval.CatchAllFolder)
	assert.Equal(t, StorageSQLite, s.Storage.Backend)
	assert.Equal(t, s.Extractor, s.Oracle(OracleExtractor))
	assert.Equal(t, s.Classifier, s.Oracle(OracleClassifier))
}

func TestStorageBackend(t *testing.T) {
	assert.True(t, StorageSQLite.IsValid())
	assert.True(t, StorageBolt.IsWritable())
	assert.True(t, StorageFilesystem.IsValid())
	assert.False(t, StorageFilesystem.IsWritable())
	assert.False(t, StorageBackend("redis").IsValid())
}

func TestOracleSettings_WithEnvKey(t *testing.T) {
	env := map[string]string{"ANTHROPIC_API_KEY": "sk-ant-env"}
	getenv := func(k string) string { return env[k] }

	fromEnv := OracleSettings{Provider: AIProviderAnthropic}.WithEnvKey(getenv)
	assert.Equal(t, "sk-ant-env", fromEnv.APIKey)

	stored := OracleSettings{Provider: AIProviderAnthropic, APIKey: "sk-ant-config"}.WithEnvKey(getenv)
	assert.Equal(t, "sk-ant-config", stored.APIKey)

	local := OracleSettings{Provider: AIProviderOllama}.WithEnvKey(getenv)
	assert.Empty(t, local.APIKey)
}
