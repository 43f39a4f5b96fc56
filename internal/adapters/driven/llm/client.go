package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 8 << 20

// StatusError is a provider reply that carried an error, either as a
// non-200 status or as an error field in the body.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Client sends JSON requests to one provider's HTTP API. The header set at
// construction (credentials, API version) is sent with every request.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	hc       *http.Client
}

// NewClient creates a client for provider rooted at baseURL.
func NewClient(provider, baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   header,
		hc:       &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON posts in as JSON to path and decodes a successful reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	body, status, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if msg := APIErrorMessage(body); msg != "" {
		return &StatusError{Provider: c.provider, StatusCode: status, Message: msg}
	}
	if status != http.StatusOK {
		return &StatusError{Provider: c.provider, StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// Get requests path and fails unless the provider answers 200.
func (c *Client) Get(ctx context.Context, path string) error {
	body, status, err := c.do(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		msg := APIErrorMessage(body)
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return &StatusError{Provider: c.provider, StatusCode: status, Message: msg}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	req.Header = c.header.Clone()
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read response: %w", c.provider, err)
	}
	return data, resp.StatusCode, nil
}

// APIErrorMessage extracts the error field providers put in failed replies:
// either {"error": {"message": "..."}} or {"error": "..."}.
func APIErrorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(envelope.Error, &text) == nil {
		return text
	}
	var object struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &object) == nil {
		return object.Message
	}
	return ""
}
