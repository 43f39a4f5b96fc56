// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// linesPerResult is the rendered height of one result row.
const linesPerResult = 3

// ResultList displays resolved content items in a navigable list.
type ResultList struct {
	results  []domain.ResolvedResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	visible := max((r.height-2)/linesPerResult, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	return strings.Join(lines, "\n")
}

// renderResult formats one result as a label line, a provenance line and a reason line.
func (r *ResultList) renderResult(index int, result *domain.ResolvedResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	label := result.Content.Label()
	if label == "" {
		label = fmt.Sprintf("#%d", result.Pointer.Index)
	}
	label = truncate(label, max(r.width-20, 10))

	badge := r.styles.ContentBadge(result.Pointer.Type).Render(result.Pointer.Type.String())
	var labelLine string
	if index == r.selected {
		labelLine = r.styles.Selected.Render(indicator+label) + " " + badge
	} else {
		labelLine = r.styles.Normal.Render(indicator+label) + " " + badge
	}

	title := result.FileTitle
	if title == "" {
		title = result.Filename
	}
	source := r.styles.Subtitle.Render("    " + truncate(result.Folder+" / "+title, max(r.width-6, 20)))
	reason := r.styles.Muted.Render("    " + truncate(result.Reason, max(r.width-6, 20)))

	return labelLine + "\n" + source + "\n" + reason
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the results and resets the selection.
func (r *ResultList) SetResults(results []domain.ResolvedResult) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.ResolvedResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.ResolvedResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
