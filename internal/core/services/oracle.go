package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// oracleMaxTokens bounds each oracle reply.
const oracleMaxTokens = 4096

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// Oracle is the relevance-scoring client shared by the three stages.
// Folder and file scoring go to the classifier, content retrieval to the extractor.
// Each call is exactly one oracle request.
type Oracle struct {
	classifier driven.LLMService
	extractor  driven.LLMService
	prompts    driven.PromptStore
}

// NewOracle creates an oracle client.
// Returns domain.ErrOracleNotConfigured if either backend is missing.
func NewOracle(classifier, extractor driven.LLMService, prompts driven.PromptStore) (*Oracle, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier", domain.ErrOracleNotConfigured)
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: extractor", domain.ErrOracleNotConfigured)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt store", domain.ErrOracleNotConfigured)
	}
	return &Oracle{classifier: classifier, extractor: extractor, prompts: prompts}, nil
}

// OracleScores is the validated verdict of a scoring call.
type OracleScores struct {
	// Scores maps candidate ID to score in [0, 1].
	Scores map[string]float64

	// Rejected describes each response entry dropped by validation.
	Rejected []string
}

// OraclePointers is the validated verdict of a retrieval call.
type OraclePointers struct {
	// Pointers are in response order.
	Pointers []domain.ContentPointer

	// Rejected describes each response entry dropped by validation.
	Rejected []string
}

// RetrievalItem is one content item as sent to the extractor.
type RetrievalItem struct {
	Type  domain.ContentType `json:"type"`
	Index int                `json:"index"`
	Label string             `json:"label,omitempty"`
	Text  string             `json:"text"`
}

// RetrievalFile is one file and its flattened content as sent to the extractor.
type RetrievalFile struct {
	FileID string          `json:"fileId"`
	Title  string          `json:"title"`
	Items  []RetrievalItem `json:"items"`
}

type folderCandidate struct {
	FolderID  string   `json:"folderId"`
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords"`
	FileCount int      `json:"fileCount"`
}

type fileCandidate struct {
	FileID   string   `json:"fileId"`
	Folder   string   `json:"folder"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

type oracleRequest struct {
	Query   string `json:"query"`
	Folders any    `json:"folders,omitempty"`
	Files   any    `json:"files,omitempty"`
}

type oracleResponse struct {
	Results []json.RawMessage `json:"results"`
}

type scoreEntry struct {
	FolderID string   `json:"folderId"`
	FileID   string   `json:"fileId"`
	ID       string   `json:"id"`
	Score    *float64 `json:"score"`
}

func (e scoreEntry) candidateID() string {
	switch {
	case e.FolderID != "":
		return e.FolderID
	case e.FileID != "":
		return e.FileID
	default:
		return e.ID
	}
}

type retrievalEntry struct {
	FileID   string `json:"fileId"`
	Relevant []struct {
		Type   string   `json:"type"`
		Index  *float64 `json:"index"`
		Reason string   `json:"reason"`
	} `json:"relevant"`
}

// ScoreFolders asks the classifier to score folders against the query.
func (o *Oracle) ScoreFolders(ctx context.Context, query string, folders []domain.Folder) (*OracleScores, error) {
	candidates := make([]folderCandidate, len(folders))
	known := make(map[string]bool, len(folders))
	for i, f := range folders {
		candidates[i] = folderCandidate{
			FolderID:  f.ID,
			Summary:   f.Summary,
			Keywords:  nonNil(f.Keywords),
			FileCount: f.FileCount,
		}
		known[f.ID] = true
	}

	results, err := o.call(ctx, o.classifier, driven.PromptFolderScoring,
		oracleRequest{Query: query, Folders: candidates})
	if err != nil {
		return nil, err
	}
	return validateScores(results, known), nil
}

// ScoreFiles asks the classifier to score files against the query.
func (o *Oracle) ScoreFiles(ctx context.Context, query string, files []domain.FileCandidate) (*OracleScores, error) {
	candidates := make([]fileCandidate, len(files))
	known := make(map[string]bool, len(files))
	for i, f := range files {
		candidates[i] = fileCandidate{
			FileID:   f.ID,
			Folder:   f.Folder,
			Title:    f.Title,
			Summary:  f.Summary,
			Keywords: nonNil(f.Keywords),
		}
		known[f.ID] = true
	}

	results, err := o.call(ctx, o.classifier, driven.PromptFileScoring,
		oracleRequest{Query: query, Files: candidates})
	if err != nil {
		return nil, err
	}
	return validateScores(results, known), nil
}

// RetrieveContent asks the extractor to select the content items relevant to the query.
// Pointers are not bounds-checked here; the resolver drops out-of-range indices.
func (o *Oracle) RetrieveContent(ctx context.Context, query string, files []RetrievalFile) (*OraclePointers, error) {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.FileID] = true
	}

	results, err := o.call(ctx, o.extractor, driven.PromptSectionRetrieval,
		oracleRequest{Query: query, Files: files})
	if err != nil {
		return nil, err
	}
	return validatePointers(results, known), nil
}

func (o *Oracle) call(ctx context.Context, llm driven.LLMService, promptName string, req oracleRequest) ([]json.RawMessage, error) {
	system, err := o.prompts.Load(promptName)
	if err != nil {
		return nil, fmt.Errorf("load prompt %s: %w", promptName, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode oracle request: %w", err)
	}

	logger.Debug("Oracle %s via %s (%d bytes)", promptName, llm.ModelName(), len(payload))

	reply, err := llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: string(payload)},
	}, driven.ChatOptions{
		MaxTokens:   oracleMaxTokens,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrOracleTransport, promptName, err)
	}

	var resp oracleResponse
	if err := decodeOracleJSON(reply, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", promptName, err)
	}
	if resp.Results == nil {
		logger.Debug("Oracle %s: no results key, treating as no matches", promptName)
	}
	return resp.Results, nil
}

// decodeOracleJSON decodes a reply that is either raw JSON or JSON inside
// a fenced code block. It fails only if neither parses.
func decodeOracleJSON(reply string, v any) error {
	trimmed := strings.TrimSpace(reply)
	rawErr := json.Unmarshal([]byte(trimmed), v)
	if rawErr == nil {
		return nil
	}

	m := fencedJSON.FindStringSubmatch(trimmed)
	if m == nil {
		return fmt.Errorf("%w: %w", domain.ErrOracleMalformed, rawErr)
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err != nil {
		return fmt.Errorf("%w: fenced block: %w", domain.ErrOracleMalformed, err)
	}
	return nil
}

func validateScores(results []json.RawMessage, known map[string]bool) *OracleScores {
	out := &OracleScores{Scores: make(map[string]float64, len(results))}
	for i, raw := range results {
		var e scoreEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: %v", i, err))
			continue
		}
		id := e.candidateID()
		switch {
		case !known[id]:
			out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: unknown id %q", i, id))
		case e.Score == nil:
			out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: %q has no score", i, id))
		case math.IsNaN(*e.Score) || *e.Score < 0 || *e.Score > 1:
			out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: %q score %v out of range", i, id, *e.Score))
		default:
			if prev, dup := out.Scores[id]; dup {
				out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: duplicate %q", i, id))
				if prev >= *e.Score {
					continue
				}
			}
			out.Scores[id] = *e.Score
		}
	}
	return out
}

func validatePointers(results []json.RawMessage, known map[string]bool) *OraclePointers {
	out := &OraclePointers{Pointers: []domain.ContentPointer{}}
	for i, raw := range results {
		var e retrievalEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: %v", i, err))
			continue
		}
		if !known[e.FileID] {
			out.Rejected = append(out.Rejected, fmt.Sprintf("result %d: unknown file %q", i, e.FileID))
			continue
		}
		for j, r := range e.Relevant {
			ct := domain.ContentType(strings.ToLower(strings.TrimSpace(r.Type)))
			switch {
			case !ct.IsValid():
				out.Rejected = append(out.Rejected, fmt.Sprintf("%s[%d]: unknown type %q", e.FileID, j, r.Type))
			case r.Index == nil || *r.Index < 0 || *r.Index != math.Trunc(*r.Index):
				out.Rejected = append(out.Rejected, fmt.Sprintf("%s[%d]: invalid index", e.FileID, j))
			default:
				out.Pointers = append(out.Pointers, domain.ContentPointer{
					FileID: e.FileID,
					Type:   ct,
					Index:  int(*r.Index),
					Reason: r.Reason,
				})
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
