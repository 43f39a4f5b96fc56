// Package openai provides an oracle backend using the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/llm"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("openai: no response choices returned")

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL. Any OpenAI-compatible endpoint works.
	BaseURL string

	Model   string
	Timeout time.Duration
}

// LLMService calls OpenAI chat completions.
type LLMService struct {
	client *llm.Client
	model  string
}

type responseFormat struct {
	Type string `json:"type"`
}

// completionRequest is the /chat/completions body. Temperature is a pointer
// so that 0 is sent rather than omitted.
type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &LLMService{
		client: llm.NewClient("openai", cfg.BaseURL, cfg.Timeout, header),
		model:  cfg.Model,
	}, nil
}

// Chat sends the conversation and returns the first choice's content.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := completionRequest{
		Model:       s.model,
		Messages:    make([]message, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: &opts.Temperature,
	}
	for i, m := range messages {
		req.Messages[i] = message{Role: m.Role, Content: m.Content}
	}
	if opts.JSONMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp completionResponse
	if err := s.client.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Get(ctx, "/models")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
