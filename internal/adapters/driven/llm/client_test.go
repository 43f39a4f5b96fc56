package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"object form", `{"error": {"type": "auth", "message": "bad key"}}`, "bad key"},
		{"string form", `{"error": "model not found"}`, "model not found"},
		{"no error field", `{"choices": []}`, ""},
		{"null error", `{"error": null}`, ""},
		{"not json", "upstream down", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, APIErrorMessage([]byte(tt.body)))
		})
	}
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("X-Key", "secret")
	c := NewClient("test", server.URL+"/", time.Second, header)

	var out map[string]string
	err := c.PostJSON(context.Background(), "/v1/chat", map[string]string{"q": "corrosion"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "corrosion", out["echo"])
	assert.Equal(t, server.URL, c.BaseURL())
}

func TestClient_PostJSONErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"api error on failure status", http.StatusUnauthorized, `{"error": {"message": "bad key"}}`, 401, "bad key"},
		{"api error on ok status", http.StatusOK, `{"error": "out of memory"}`, 200, "out of memory"},
		{"plain failure body", http.StatusBadGateway, "upstream down\n", 502, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var out map[string]any
			err := NewClient("test", server.URL, time.Second, nil).PostJSON(context.Background(), "/", struct{}{}, &out)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, "test", statusErr.Provider)
			assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
			assert.Equal(t, tt.wantMsg, statusErr.Message)
			assert.Contains(t, err.Error(), "test error")
		})
	}
}

func TestClient_PostJSONUndecodable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient("test", server.URL, time.Second, nil).PostJSON(context.Background(), "/", struct{}{}, &out)

	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Get(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(status)
	}))
	c := NewClient("test", server.URL, time.Second, nil)

	assert.NoError(t, c.Get(context.Background(), "/models"))

	status = http.StatusForbidden
	var statusErr *StatusError
	require.True(t, errors.As(c.Get(context.Background(), "/models"), &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)

	server.Close()
	assert.Error(t, c.Get(context.Background(), "/models"))
}

func TestClient_RespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient("test", server.URL, time.Minute, nil).Get(ctx, "/")

	assert.ErrorIs(t, err, context.Canceled)
}
