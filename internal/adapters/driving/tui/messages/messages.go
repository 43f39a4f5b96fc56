// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// SearchRequested is a command to perform a search.
type SearchRequested struct {
	Query   string
	Options domain.SearchOptions
}

// SearchProgress carries a state transition of the running search.
type SearchProgress struct {
	Event domain.ProgressEvent
}

// SearchCompleted carries the search envelope back to the model.
// Envelope may be partial when Err is set.
type SearchCompleted struct {
	Envelope *domain.SearchEnvelope
	Err      error
}

// FoldersLoaded carries the folder listing from the catalog.
type FoldersLoaded struct {
	Folders []domain.Folder
	Err     error
}

// FileSelected requests the content view of a result's file, positioned
// at the pointed content item.
type FileSelected struct {
	Pointer domain.ContentPointer
}

// FileLoaded carries an extraction record loaded from the catalog.
type FileLoaded struct {
	FileID     string
	Extraction domain.Extraction
	Err        error
}

// SettingsLoaded carries the current settings and the result of validating them.
type SettingsLoaded struct {
	Settings      *domain.AppSettings
	ValidationErr error
	Err           error
}

// SettingsSaved signals that a settings change was persisted.
type SettingsSaved struct {
	Err error
}

// PromptsReloaded signals that an oracle prompt file changed on disk.
type PromptsReloaded struct {
	Name string
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the search input, progress and results view.
	ViewSearch ViewType = iota
	// ViewFolders lists folders and their summaries.
	ViewFolders
	// ViewFile shows every content item of one extraction record.
	ViewFile
	// ViewSettings shows the effective settings.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewFolders:
		return "folders"
	case ViewFile:
		return "file"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
