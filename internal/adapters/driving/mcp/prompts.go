package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts registers the prompt templates offered to clients.
func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "zoom-in",
		Title:       "Answer from the records",
		Description: "Answer a question using only content items found by the search tool, citing each file",
		Arguments: []*mcp.PromptArgument{
			{Name: "question", Description: "the question to answer", Required: true},
			{Name: "threshold", Description: "optional relevance threshold between 0 and 1"},
		},
	}, s.handleZoomInPrompt)
}

func (s *Server) handleZoomInPrompt(
	_ context.Context,
	req *mcp.GetPromptRequest,
) (*mcp.GetPromptResult, error) {
	question := strings.TrimSpace(req.Params.Arguments["question"])
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidArgument)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Call the search tool with the query %q", question)
	if t := strings.TrimSpace(req.Params.Arguments["threshold"]); t != "" {
		fmt.Fprintf(&b, " and threshold %s", t)
	}
	b.WriteString(".\nAnswer using only the returned content items. ")
	b.WriteString("Cite each item by its file title and type, for example \"FW-101 (table 0)\". ")
	b.WriteString("If the search returns no results, say that the records do not cover the question.")

	return &mcp.GetPromptResult{
		Description: "Zoom-in answer for: " + question,
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: b.String()},
		}},
	}, nil
}
