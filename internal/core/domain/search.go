package domain

import "time"

// Default retrieval parameters.
const (
	// DefaultThreshold is the minimum oracle score for folders and files.
	DefaultThreshold = 0.5

	// DefaultCatchAllFolder holds documents the classifier could not place.
	// It is never scored.
	DefaultCatchAllFolder = "Unsorted"

	// DefaultStageTimeout bounds each pipeline stage.
	DefaultStageTimeout = 120 * time.Second

	// DefaultMaxItemChars truncates each content item in the retrieval prompt.
	DefaultMaxItemChars = 4000
)

// SearchOptions configures a single zoom-in search.
// Zero values fall back to the configured retrieval settings.
type SearchOptions struct {
	// Threshold is the minimum score a folder or file needs to survive.
	Threshold float64

	// CatchAllFolder is excluded from folder scoring.
	CatchAllFolder string

	// StageTimeout bounds each stage, including its oracle call.
	StageTimeout time.Duration

	// MaxItemChars truncates content items sent to the extractor.
	MaxItemChars int
}

// WithDefaults fills zero fields from the given settings.
func (o SearchOptions) WithDefaults(r RetrievalSettings) SearchOptions {
	if o.Threshold <= 0 {
		o.Threshold = r.Threshold
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.CatchAllFolder == "" {
		o.CatchAllFolder = r.CatchAllFolder
	}
	if o.CatchAllFolder == "" {
		o.CatchAllFolder = DefaultCatchAllFolder
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = r.StageTimeout
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = DefaultStageTimeout
	}
	if o.MaxItemChars <= 0 {
		o.MaxItemChars = r.MaxItemChars
	}
	if o.MaxItemChars <= 0 {
		o.MaxItemChars = DefaultMaxItemChars
	}
	return o
}

// ScoredFolder is a folder that survived stage 1.
type ScoredFolder struct {
	Folder Folder  `json:"folder"`
	Score  float64 `json:"score"`
}

// FileCandidate is the projection of an extraction record scored in stage 2.
type FileCandidate struct {
	ID       string   `json:"id"`
	Folder   string   `json:"folder"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
}

// ScoredFile is a file that survived stage 2.
type ScoredFile struct {
	File  FileCandidate `json:"file"`
	Score float64       `json:"score"`
}

// ContentPointer addresses a content item without carrying it.
type ContentPointer struct {
	FileID string      `json:"fileId"`
	Type   ContentType `json:"type"`
	Index  int         `json:"index"`
	Reason string      `json:"reason"`
}

// ResolvedResult is a pointer materialised into content with provenance.
type ResolvedResult struct {
	Pointer   ContentPointer `json:"pointer"`
	Content   ContentItem    `json:"content"`
	Folder    string         `json:"folder"`
	Filename  string         `json:"filename"`
	FileTitle string         `json:"fileTitle"`
	Reason    string         `json:"reason"`
}

// Diagnostics counts the lenient drops made during one search.
type Diagnostics struct {
	// DroppedPointers is the number of pointers that did not resolve.
	DroppedPointers int `json:"droppedPointers"`

	// SkippedFiles is the number of records that were missing or unparseable.
	SkippedFiles int `json:"skippedFiles"`

	// InvalidOracleEntries is the number of oracle entries rejected by validation.
	InvalidOracleEntries int `json:"invalidOracleEntries"`

	// Warnings describes each drop.
	Warnings []string `json:"warnings,omitempty"`
}

// HasWarnings returns true if anything was dropped.
func (d Diagnostics) HasWarnings() bool {
	return d.DroppedPointers > 0 || d.SkippedFiles > 0 || d.InvalidOracleEntries > 0
}

// SearchEnvelope is the result of one search. Intermediate stage outputs
// are kept for inspection. Stages that did not run leave empty slices.
type SearchEnvelope struct {
	SearchID    string           `json:"searchId"`
	Query       string           `json:"query"`
	Folders     []ScoredFolder   `json:"folders"`
	Files       []ScoredFile     `json:"files"`
	Results     []ResolvedResult `json:"results"`
	Elapsed     time.Duration    `json:"elapsed"`
	Diagnostics Diagnostics      `json:"diagnostics"`
}

// NewSearchEnvelope creates an envelope with empty, non-nil stage outputs.
func NewSearchEnvelope(searchID, query string) *SearchEnvelope {
	return &SearchEnvelope{
		SearchID: searchID,
		Query:    query,
		Folders:  []ScoredFolder{},
		Files:    []ScoredFile{},
		Results:  []ResolvedResult{},
	}
}
