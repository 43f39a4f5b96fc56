package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string  `json:"query" jsonschema:"the question to answer from the extraction records"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum folder and file score in (0, 1]; 0 or omitted uses the configured default"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	SearchID string               `json:"search_id"`
	Folders  []ScoredOutput       `json:"folders"`
	Files    []ScoredOutput       `json:"files"`
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
	Warnings []string             `json:"warnings,omitempty"`
}

// ScoredOutput is a folder or file that survived its stage.
type ScoredOutput struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// SearchResultOutput represents a single resolved content item.
type SearchResultOutput struct {
	FileID    string `json:"file_id"`
	URI       string `json:"uri"`
	FileTitle string `json:"file_title"`
	Type      string `json:"type"`
	Index     int    `json:"index"`
	Label     string `json:"label,omitempty"`
	Content   string `json:"content"`
	Reason    string `json:"reason,omitempty"`

	// Item is the resolved item in structured form, e.g. a table's
	// title, headers and rows.
	Item any `json:"content_item" jsonschema:"the resolved content item with its structured fields"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search",
		Description: "Answer a question by zooming in on the extraction records: " +
			"relevant folders, then files, then the sections, tables, charts, images and readings inside them",
	}, s.handleSearch)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Threshold < 0 || input.Threshold > 1 {
		return nil, SearchOutput{}, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidInput)
	}

	observer := driving.ProgressFunc(func(e domain.ProgressEvent) {
		logger.Debug("mcp search %s: %s", e.SearchID, e.Message)
	})
	opts := domain.SearchOptions{Threshold: input.Threshold}

	env, err := s.ports.Retrieval.Search(ctx, input.Query, opts, observer)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, toSearchOutput(env), nil
}

func toSearchOutput(env *domain.SearchEnvelope) SearchOutput {
	output := SearchOutput{
		SearchID: env.SearchID,
		Folders:  make([]ScoredOutput, len(env.Folders)),
		Files:    make([]ScoredOutput, len(env.Files)),
		Results:  make([]SearchResultOutput, len(env.Results)),
		Count:    len(env.Results),
		Warnings: env.Diagnostics.Warnings,
	}

	for i, f := range env.Folders {
		output.Folders[i] = ScoredOutput{ID: f.Folder.ID, Score: f.Score}
	}
	for i, f := range env.Files {
		output.Files[i] = ScoredOutput{ID: f.File.ID, Score: f.Score}
	}
	for i := range env.Results {
		r := &env.Results[i]
		output.Results[i] = SearchResultOutput{
			FileID:    r.Pointer.FileID,
			URI:       fileURI(r.Pointer.FileID),
			FileTitle: r.FileTitle,
			Type:      r.Pointer.Type.String(),
			Index:     r.Pointer.Index,
			Label:     r.Content.Label(),
			Content:   r.Content.Text(),
			Reason:    r.Reason,
			Item:      r.Content,
		}
	}

	return output
}
