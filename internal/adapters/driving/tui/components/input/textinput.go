// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
)

// maxHistory bounds the remembered queries.
const maxHistory = 50

// QueryInput wraps a bubbles textinput with a recall history of past queries.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// cursor indexes history while recalling; len(history) means the live line.
	cursor int
}

// NewQueryInput creates a new query input component.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 50

	return &QueryInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the input.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages. Up and down recall earlier queries.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // only history keys are intercepted
		switch key.Type {
		case tea.KeyUp:
			q.Prev()
			return q, nil
		case tea.KeyDown:
			q.Next()
			return q, nil
		}
	}
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the input.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query: ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Remember appends a submitted query to the history.
// Blank queries and repeats of the last entry are ignored.
func (q *QueryInput) Remember(query string) {
	query = strings.TrimSpace(query)
	if query != "" && (len(q.history) == 0 || q.history[len(q.history)-1] != query) {
		q.history = append(q.history, query)
		if len(q.history) > maxHistory {
			q.history = q.history[len(q.history)-maxHistory:]
		}
	}
	q.cursor = len(q.history)
}

// Prev recalls the previous query.
func (q *QueryInput) Prev() {
	if q.cursor == 0 {
		return
	}
	q.cursor--
	q.textinput.SetValue(q.history[q.cursor])
	q.textinput.CursorEnd()
}

// Next recalls the next query, or clears the line past the newest.
func (q *QueryInput) Next() {
	if q.cursor >= len(q.history) {
		return
	}
	q.cursor++
	if q.cursor == len(q.history) {
		q.textinput.SetValue("")
		return
	}
	q.textinput.SetValue(q.history[q.cursor])
	q.textinput.CursorEnd()
}

// History returns the remembered queries, oldest first.
func (q *QueryInput) History() []string {
	return q.history
}

// Value returns the current input value.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-12, 20)
}

// Width returns the current width.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the input and history cursor.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
	q.cursor = len(q.history)
}
