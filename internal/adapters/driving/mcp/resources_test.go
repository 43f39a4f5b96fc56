package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

func TestExtractFileID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "raw file URI",
			uri:      "zoomin://files/Inspection Data/piping_FW_101",
			expected: "Inspection Data/piping_FW_101",
		},
		{
			name:     "percent-encoded file URI",
			uri:      "zoomin://files/Inspection%20Data%2Fpiping_FW_101",
			expected: "Inspection Data/piping_FW_101",
		},
		{
			name:     "invalid prefix",
			uri:      "file://files/a/b",
			expected: "",
		},
		{
			name:     "bad escape",
			uri:      "zoomin://files/a%zz",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractFileID(tt.uri))
		})
	}
}

func TestFileURI_RoundTrip(t *testing.T) {
	id := "Safety Documents/permit 7"
	assert.Equal(t, id, extractFileID(fileURI(id)))
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleFoldersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil catalog service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		result, err := server.handleFoldersResource(ctx, makeReadResourceRequest("zoomin://folders"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns folders", func(t *testing.T) {
		catalog := &mockCatalogService{folders: []domain.Folder{
			{ID: "Inspection Data", Summary: "CML surveys", Keywords: []string{"CML"}, FileCount: 2},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Catalog: catalog})
		require.NoError(t, err)

		result, err := server.handleFoldersResource(ctx, makeReadResourceRequest("zoomin://folders"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		var folders []domain.Folder
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &folders))
		assert.Equal(t, catalog.folders, folders)
	})

	t.Run("returns error on catalog failure", func(t *testing.T) {
		catalog := &mockCatalogService{err: domain.ErrStoreUnavailable}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Catalog: catalog})
		require.NoError(t, err)

		_, err = server.handleFoldersResource(ctx, makeReadResourceRequest("zoomin://folders"))

		assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	})
}

func TestServer_handleFileResource(t *testing.T) {
	ctx := context.Background()
	ext, err := domain.ParseExtraction([]byte(`{
		"title": "Piping Inspection FW-101",
		"summary": "UT thickness survey",
		"sections": [{"heading": "Scope", "text": "Line 101"}],
		"tables": [{"title": "CML Readings", "headers": ["CML", "Rate"], "rows": [["1", 0.12]]}]
	}`))
	require.NoError(t, err)
	catalog := &mockCatalogService{files: map[string]domain.Extraction{"Inspection Data/piping_FW_101": ext}}

	t.Run("returns content items", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Catalog: catalog})
		require.NoError(t, err)

		result, err := server.handleFileResource(ctx,
			makeReadResourceRequest("zoomin://files/Inspection%20Data%2Fpiping_FW_101"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		var content fileContent
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &content))
		assert.Equal(t, "Inspection Data/piping_FW_101", content.FileID)
		assert.Equal(t, "document", content.Variant)
		assert.Equal(t, "Piping Inspection FW-101", content.Title)
		require.Len(t, content.Items, 2)
		assert.Equal(t, domain.ContentSection, content.Items[0].Type)
		assert.Equal(t, domain.ContentTable, content.Items[1].Type)
	})

	t.Run("unknown file is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Catalog: catalog})
		require.NoError(t, err)

		_, err = server.handleFileResource(ctx, makeReadResourceRequest("zoomin://files/Inspection%20Data%2Fghost"))

		require.Error(t, err)
	})

	t.Run("invalid URI is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Catalog: catalog})
		require.NoError(t, err)

		_, err = server.handleFileResource(ctx, makeReadResourceRequest("zoomin://invalid/uri"))

		require.Error(t, err)
	})

	t.Run("nil catalog service is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, err = server.handleFileResource(ctx, makeReadResourceRequest("zoomin://files/a%2Fb"))

		require.Error(t, err)
	})
}
