package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Folder is a group of extraction records with a precomputed summary.
// Folders are produced by the summarisation process and are read-only here.
type Folder struct {
	// ID is the path-like folder identifier.
	ID string `json:"id"`

	// Summary describes the folder contents. Empty means not yet indexed.
	Summary string `json:"summary"`

	// Keywords are salient terms across the folder.
	Keywords []string `json:"keywords,omitempty"`

	// FileCount is the number of files the summary covers.
	FileCount int `json:"fileCount"`
}

// IsIndexed returns true if the folder carries a summary.
func (f Folder) IsIndexed() bool {
	return strings.TrimSpace(f.Summary) != ""
}

// FolderSummary is the summary block stored in folder metadata.
type FolderSummary struct {
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords,omitempty"`
	FileCount int      `json:"fileCount"`
}

// FolderMetadata is the stored metadata blob of a folder.
type FolderMetadata struct {
	FolderSummary *FolderSummary `json:"folderSummary,omitempty"`
}

// ParseFolderMetadata decodes a stored folder metadata blob.
func ParseFolderMetadata(blob []byte) (*FolderMetadata, error) {
	var meta FolderMetadata
	if err := json.Unmarshal(blob, &meta); err != nil {
		return nil, fmt.Errorf("%w: folder metadata: %w", ErrInvalidInput, err)
	}
	return &meta, nil
}

// Folder builds the folder view of this metadata.
// A nil summary yields an unindexed folder.
func (m *FolderMetadata) Folder(id string) Folder {
	f := Folder{ID: id}
	if m == nil || m.FolderSummary == nil {
		return f
	}
	f.Summary = m.FolderSummary.Summary
	f.Keywords = m.FolderSummary.Keywords
	f.FileCount = m.FolderSummary.FileCount
	return f
}
