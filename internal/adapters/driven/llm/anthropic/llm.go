// Package anthropic provides an oracle backend using the Anthropic messages API.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/llm"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 120 * time.Second
	defaultMaxTokens = 1024

	apiVersion = "2023-06-01"

	// jsonInstruction stands in for a JSON mode, which the API lacks.
	jsonInstruction = "Respond with a single JSON object and nothing else."
)

// ErrEmptyContent is returned when a reply carries no text blocks.
var ErrEmptyContent = errors.New("anthropic: no response content returned")

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls the Anthropic messages endpoint.
type LLMService struct {
	client *llm.Client
	model  string
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", apiVersion)
	return &LLMService{
		client: llm.NewClient("anthropic", cfg.BaseURL, cfg.Timeout, header),
		model:  cfg.Model,
	}, nil
}

// Chat sends the conversation. System messages are lifted into the
// top-level system field.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	req := messagesRequest{
		Model:       s.model,
		Messages:    make([]message, 0, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for _, m := range messages {
		if m.Role == driven.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, message{Role: m.Role, Content: m.Content})
	}
	if opts.JSONMode {
		system = append(system, jsonInstruction)
	}
	req.System = strings.Join(system, "\n\n")
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}

	var resp messagesResponse
	if err := s.client.PostJSON(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyContent
	}
	return text.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models to check the key and endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Get(ctx, "/v1/models")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
