// Package filecontent provides the extraction record view for the TUI.
package filecontent

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

// View shows every content item of one extraction record, scrolled to the
// item a search result pointed at.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	catalog driving.CatalogService
	ctx     context.Context

	pointer    domain.ContentPointer
	extraction domain.Extraction
	lines      []string
	// anchor is the first line of the pointed item, -1 if not rendered.
	anchor       int
	scrollOffset int
	width        int
	height       int
	err          error
	loading      bool
}

// NewView creates a new file content view.
func NewView(s *styles.Styles, catalog driving.CatalogService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		keymap:  keymap.DefaultKeyMap(),
		catalog: catalog,
		ctx:     context.Background(),
		anchor:  -1,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for catalog calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open starts loading the file a pointer refers to.
func (v *View) Open(pointer domain.ContentPointer) tea.Cmd {
	v.pointer = pointer
	v.extraction = nil
	v.lines = nil
	v.anchor = -1
	v.scrollOffset = 0
	v.err = nil

	if v.catalog == nil {
		v.err = fmt.Errorf("catalog not available")
		return nil
	}
	v.loading = true
	catalog, ctx, fileID := v.catalog, v.ctx, pointer.FileID
	return func() tea.Msg {
		ext, err := catalog.GetFile(ctx, fileID)
		return messages.FileLoaded{FileID: fileID, Extraction: ext, Err: err}
	}
}

// Update handles messages for the file content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		v.handleKeyMsg(msg)
	case messages.FileLoaded:
		if msg.FileID != v.pointer.FileID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.extraction = msg.Extraction
		v.render()
		v.scrollToAnchor()
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) {
	switch keyStr := msg.String(); {
	case keymap.Matches(keyStr, v.keymap.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case keymap.Matches(keyStr, v.keymap.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case keymap.Matches(keyStr, v.keymap.PageUp):
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case keymap.Matches(keyStr, v.keymap.PageDown):
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case keymap.Matches(keyStr, v.keymap.Top):
		v.scrollOffset = 0
	case keymap.Matches(keyStr, v.keymap.Bottom):
		v.scrollOffset = v.maxScrollOffset()
	}
}

// render lays the record out as wrapped lines and records the anchor.
func (v *View) render() {
	v.lines = nil
	v.anchor = -1
	if v.extraction == nil {
		return
	}

	width := max(v.width-4, 20)
	wrap := lipgloss.NewStyle().Width(width)

	header := v.extraction.Header()
	if header.Summary != "" {
		v.lines = append(v.lines, strings.Split(wrap.Render(v.styles.Muted.Render(header.Summary)), "\n")...)
	}
	if len(header.Keywords) > 0 {
		v.lines = append(v.lines, v.styles.Muted.Render("Keywords: "+strings.Join(header.Keywords, ", ")))
	}
	v.lines = append(v.lines, "")

	for _, item := range v.extraction.ContentItems().Items() {
		label := item.Label()
		if label == "" {
			label = fmt.Sprintf("#%d", item.Index)
		}
		badge := v.styles.ContentBadge(item.Type).Render(fmt.Sprintf("%s %d", item.Type, item.Index))
		if item.Type == v.pointer.Type && item.Index == v.pointer.Index {
			v.anchor = len(v.lines)
			v.lines = append(v.lines, badge+" "+v.styles.Selected.Render(label))
		} else {
			v.lines = append(v.lines, badge+" "+v.styles.Subtitle.Render(label))
		}
		if text := strings.TrimSpace(item.Text()); text != "" {
			v.lines = append(v.lines, strings.Split(wrap.Render(text), "\n")...)
		}
		v.lines = append(v.lines, "")
	}
}

func (v *View) scrollToAnchor() {
	if v.anchor < 0 {
		return
	}
	v.scrollOffset = min(v.anchor, v.maxScrollOffset())
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the file content view.
func (v *View) View() string {
	var b strings.Builder

	title := v.pointer.FileID
	if v.extraction != nil && v.extraction.Header().Title != "" {
		title = v.extraction.Header().Title
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.pointer.FileID))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		b.WriteString(strings.Join(v.lines[v.scrollOffset:end], "\n"))
		if len(v.lines) > visible {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d",
				v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and re-wraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.render()
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// Pointer returns the pointer the view was opened with.
func (v *View) Pointer() domain.ContentPointer {
	return v.pointer
}

// Extraction returns the loaded record.
func (v *View) Extraction() domain.Extraction {
	return v.extraction
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Anchor returns the line of the pointed item, or -1.
func (v *View) Anchor() int {
	return v.anchor
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
