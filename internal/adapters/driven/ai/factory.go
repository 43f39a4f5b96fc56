// Package ai provides factory functions for creating oracle backends.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/llm"
	anthropicllm "github.com/custodia-labs/zoomin/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/zoomin/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/zoomin/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the oracle backends for both roles.
type InitResult struct {
	Classifier driven.LLMService
	Extractor  driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Classifier != nil {
		r.Classifier.Close()
	}
	if r.Extractor != nil && r.Extractor != r.Classifier {
		r.Extractor.Close()
	}
}

// CreateOracleBackends creates the classifier and extractor backends from settings.
// Both share one request budget when a rate limit is configured.
func CreateOracleBackends(settings domain.AppSettings) (*InitResult, error) {
	classifier, err := CreateLLMService(settings.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w. Run 'zoomin settings oracle' to fix", err)
	}
	extractor, err := CreateLLMService(settings.Extractor)
	if err != nil {
		classifier.Close()
		return nil, fmt.Errorf("extractor: %w. Run 'zoomin settings oracle' to fix", err)
	}

	limiter := llm.NewLimiter(settings.Retrieval.RateLimit)
	return &InitResult{
		Classifier: llm.WithLimiter(classifier, limiter),
		Extractor:  llm.WithLimiter(extractor, limiter),
	}, nil
}

// ValidateOracleConfig creates a backend and pings it.
func ValidateOracleConfig(settings domain.OracleSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrOracleTransport, err)
	}
	return nil
}

// CreateLLMService creates the backend for one oracle role.
func CreateLLMService(settings domain.OracleSettings) (driven.LLMService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key (set %s)",
			domain.ErrOracleNotConfigured, settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil
	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)
	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings domain.OracleSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings domain.OracleSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings domain.OracleSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
