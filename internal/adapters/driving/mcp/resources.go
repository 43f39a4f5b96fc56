package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for zoomin resources.
	uriScheme = "zoomin://"

	filesPrefix = uriScheme + "files/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "folders",
		Name:        "folders",
		Description: "Every folder with its summary, keywords and file count",
		MIMEType:    "application/json",
	}, s.handleFoldersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: filesPrefix + "{fileId}",
		Name:        "file-content",
		Description: "Flattened content items of one extraction record (fileId is folder/filename)",
		MIMEType:    "application/json",
	}, s.handleFileResource)
}

// handleFoldersResource returns every folder in the record store.
func (s *Server) handleFoldersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	folders, err := s.ports.Catalog.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}

	data, err := json.MarshalIndent(folders, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling folders: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// fileContent is the JSON shape of the file resource.
type fileContent struct {
	FileID   string               `json:"fileId"`
	Variant  string               `json:"variant"`
	Title    string               `json:"title"`
	Summary  string               `json:"summary"`
	Keywords []string             `json:"keywords,omitempty"`
	Items    []domain.ContentItem `json:"items"`
}

// handleFileResource returns the content items of one extraction record.
func (s *Server) handleFileResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	fileID := extractFileID(req.Params.URI)
	if fileID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	ext, err := s.ports.Catalog.GetFile(ctx, fileID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidKey) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}

	header := ext.Header()
	content := fileContent{
		FileID:   fileID,
		Variant:  string(ext.Variant()),
		Title:    header.Title,
		Summary:  header.Summary,
		Keywords: header.Keywords,
		Items:    ext.ContentItems().Items(),
	}
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling file: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractFileID extracts the file ID from a URI like zoomin://files/{fileId}.
// The ID may be percent-encoded, since it contains a slash.
func extractFileID(uri string) string {
	if !strings.HasPrefix(uri, filesPrefix) {
		return ""
	}
	id, err := url.PathUnescape(strings.TrimPrefix(uri, filesPrefix))
	if err != nil {
		return ""
	}
	return id
}

// fileURI builds the resource URI of a file.
func fileURI(fileID string) string {
	return filesPrefix + url.PathEscape(fileID)
}
