// Package folders provides the folder browser view for the TUI.
package folders

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

const linesPerFolder = 3

// View lists folders with their summaries, keywords and file counts.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	catalog driving.CatalogService
	ctx     context.Context

	folders  []domain.Folder
	selected int
	loading  bool
	err      error

	width  int
	height int
}

// NewView creates a new folders view.
func NewView(s *styles.Styles, km *keymap.KeyMap, catalog driving.CatalogService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:  s,
		keymap:  km,
		catalog: catalog,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for catalog calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the folder listing.
func (v *View) Init() tea.Cmd {
	if v.catalog == nil {
		return nil
	}
	v.loading = true
	catalog, ctx := v.catalog, v.ctx
	return func() tea.Msg {
		folders, err := catalog.ListFolders(ctx)
		return messages.FoldersLoaded{Folders: folders, Err: err}
	}
}

// Update handles messages for the folders view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.FoldersLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.folders = msg.Folders
			v.selected = 0
		}
	case tea.KeyMsg:
		switch keyStr := msg.String(); {
		case keymap.Matches(keyStr, v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(keyStr, v.keymap.Down):
			if v.selected < len(v.folders)-1 {
				v.selected++
			}
		}
	}
	return v, nil
}

// View renders the folders view.
func (v *View) View() string {
	sections := []string{v.styles.Title.Render("Folders"), ""}

	switch {
	case v.catalog == nil:
		sections = append(sections, v.styles.Muted.Render("Catalog not available"))
	case v.loading:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case len(v.folders) == 0:
		sections = append(sections, v.styles.Muted.Render("No folders. Run 'zoomin import <dir>' to load records."))
	default:
		sections = append(sections, v.renderFolders())
	}

	sections = append(sections, "", v.styles.Help.Render("tab/esc: back to search | ↑/↓: navigate"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderFolders() string {
	visible := max((v.height-4)/linesPerFolder, 1)
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := min(start+visible, len(v.folders))

	width := max(v.width-4, 20)
	lines := make([]string, 0, (end-start)*linesPerFolder)
	for i := start; i < end; i++ {
		f := v.folders[i]
		title := fmt.Sprintf("%s (%d files)", f.ID, f.FileCount)
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+title))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+title))
		}
		if !f.IsIndexed() {
			lines = append(lines, v.styles.Warning.Render("    not indexed"))
			continue
		}
		lines = append(lines, v.styles.Muted.Render("    "+truncate(f.Summary, width)))
		if len(f.Keywords) > 0 {
			lines = append(lines, v.styles.Muted.Render("    "+truncate(strings.Join(f.Keywords, ", "), width)))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Folders returns the loaded folders.
func (v *View) Folders() []domain.Folder {
	return v.folders
}

// Selected returns the index of the selected folder.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
