// Package search provides the main search view for the TUI.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// eventBuffer bounds the progress events queued between the search goroutine
// and the update loop.
const eventBuffer = 16

// searchEvent tags a message from the search goroutine with the search
// that produced it, so events of a search abandoned by Reset are dropped.
type searchEvent struct {
	generation uint64
	msg        tea.Msg
}

var stages = []domain.SearchState{
	domain.StateScoringFolders,
	domain.StateScoringFiles,
	domain.StateRetrievingSections,
}

// View is the search view: query input, live stage progress, results
// and the content of the selected result.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar
	spinner   spinner.Model

	retrieval driving.RetrievalService
	ctx       context.Context

	// events is the channel of the running search, nil when idle.
	events     chan tea.Msg
	generation uint64
	cancel     context.CancelFunc
	searching  bool
	cancelled  bool
	state      domain.SearchState

	envelope *domain.SearchEnvelope

	// threshold overrides the configured threshold when non-zero.
	threshold float64

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(s.StageActive),
	)

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		spinner:    sp,
		retrieval:  retrieval,
		ctx:        context.Background(),
		state:      domain.StateIdle,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the parent context of searches started by the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case searchEvent:
		if msg.generation != v.generation {
			return v, nil
		}
		return v.Update(msg.msg)

	case messages.SearchRequested:
		return v, v.startSearch(msg.Query, msg.Options)

	case messages.SearchProgress:
		v.handleProgress(msg.Event)
		return v, v.waitForEvent()

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.searching {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if v.searching {
		if keymap.Matches(keyStr, v.keymap.Cancel) {
			v.Cancel()
		}
		return v, nil
	}

	if v.focusInput {
		if keymap.Matches(keyStr, v.keymap.Search) {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			return v, v.startSearch(query, domain.SearchOptions{Threshold: v.threshold})
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.Open):
		if r := v.list.SelectedResult(); r != nil {
			pointer := r.Pointer
			return v, func() tea.Msg { return messages.FileSelected{Pointer: pointer} }
		}
	case keymap.Matches(keyStr, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(keyStr, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(keyStr, v.keymap.NewSearch), keymap.Matches(keyStr, v.keymap.Back):
		v.focusInput = true
		return v, v.input.Focus()
	}
	return v, nil
}

// startSearch runs the search in a goroutine. Progress events and the final
// envelope are delivered through a channel drained by waitForEvent.
func (v *View) startSearch(query string, opts domain.SearchOptions) tea.Cmd {
	if v.retrieval == nil {
		v.err = ErrNoRetrievalService
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(v.err.Error())
		return nil
	}
	if v.searching {
		return nil
	}

	ctx, cancel := context.WithCancel(v.ctx)
	events := make(chan tea.Msg, eventBuffer)

	v.input.SetValue(query)
	v.input.Remember(query)
	v.input.Blur()
	v.focusInput = false
	v.events = events
	v.generation++
	v.cancel = cancel
	v.searching = true
	v.cancelled = false
	v.state = domain.StateIdle
	v.envelope = nil
	v.err = nil
	v.list.SetResults(nil)
	v.statusbar.SetState(status.StateSearching)
	v.statusbar.SetMessage("")

	retrieval := v.retrieval
	go func() {
		defer close(events)
		observer := driving.ProgressFunc(func(e domain.ProgressEvent) {
			select {
			case events <- messages.SearchProgress{Event: e}:
			case <-ctx.Done():
			}
		})
		env, err := retrieval.Search(ctx, query, opts, observer)
		events <- messages.SearchCompleted{Envelope: env, Err: err}
	}()

	return tea.Batch(v.spinner.Tick, v.waitForEvent())
}

// waitForEvent returns a command that delivers the next message of the
// running search.
func (v *View) waitForEvent() tea.Cmd {
	events, generation := v.events, v.generation
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return searchEvent{generation: generation, msg: msg}
	}
}

func (v *View) handleProgress(e domain.ProgressEvent) {
	if !v.searching {
		return
	}
	v.state = e.State
	v.statusbar.SetMessage(e.Message)
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if !v.searching {
		return
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.events = nil
	v.searching = false
	v.state = domain.StateDone
	v.envelope = msg.Envelope

	if msg.Envelope != nil {
		v.list.SetResults(msg.Envelope.Results)
	}

	switch {
	case msg.Err != nil && (v.cancelled || errors.Is(msg.Err, context.Canceled)):
		v.err = nil
		v.statusbar.Clear()
		v.statusbar.SetMessage("Search cancelled")
		v.focusInput = true
		v.input.Focus()
	case msg.Err != nil:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	default:
		v.err = nil
		dropped := 0
		if msg.Envelope != nil {
			dropped = msg.Envelope.Diagnostics.DroppedPointers
		}
		v.statusbar.SetResults(v.list.Count(), dropped)
		if v.list.Count() == 0 {
			v.focusInput = true
			v.input.Focus()
		}
	}
}

// Cancel aborts the running search. The view returns to idle once the
// search goroutine reports completion.
func (v *View) Cancel() {
	if !v.searching || v.cancel == nil {
		return
	}
	v.cancelled = true
	v.cancel()
	v.statusbar.SetMessage("Cancelling...")
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("zoomin"), "", v.input.View(), "")

	if v.searching {
		sections = append(sections, v.renderStages(), "")
	}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.envelope != nil && !v.searching {
		sections = append(sections, v.renderSummary(), "")
		sections = append(sections, v.list.View())
		if detail := v.renderDetail(); detail != "" {
			sections = append(sections, "", detail)
		}
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderStages() string {
	current := v.state.Stage()
	lines := make([]string, 0, len(stages))
	for _, st := range stages {
		label := fmt.Sprintf("[%d/3] %s", st.Stage(), st.Description())
		switch {
		case current > st.Stage():
			lines = append(lines, v.styles.StageDone.Render("✓ "+label))
		case current == st.Stage():
			lines = append(lines, v.spinner.View()+" "+v.styles.StageActive.Render(label))
		default:
			lines = append(lines, v.styles.StagePending.Render("· "+label))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderSummary() string {
	env := v.envelope
	threshold := v.threshold
	if threshold == 0 {
		threshold = domain.DefaultThreshold
	}
	folders := make([]string, 0, len(env.Folders))
	for _, f := range env.Folders {
		folders = append(folders, f.Folder.ID+" "+v.styles.RenderScore(f.Score, threshold))
	}
	line := fmt.Sprintf("Folders (%d): %s", len(env.Folders), strings.Join(folders, ", "))
	summary := v.styles.Muted.Render(line) + "\n" +
		v.styles.Muted.Render(fmt.Sprintf("Files (%d)  Elapsed %s", len(env.Files), env.Elapsed.Round(time.Millisecond)))
	if env.Diagnostics.HasWarnings() {
		for _, w := range env.Diagnostics.Warnings {
			summary += "\n" + v.styles.Warning.Render("! "+w)
		}
	}
	return summary
}

// renderDetail shows the full text of the selected result.
func (v *View) renderDetail() string {
	r := v.list.SelectedResult()
	if r == nil {
		return ""
	}
	width := max(v.width-4, 20)
	maxLines := max(v.height/3, 3)

	text := r.Content.Text()
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(text), "\n")
	if len(lines) > maxLines {
		lines = append(lines[:maxLines-1], v.styles.Muted.Render("..."))
	}
	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, max(height-12-height/3, 3))
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// SetThreshold sets the threshold applied to searches started from the input.
// Zero uses the configured default.
func (v *View) SetThreshold(threshold float64) {
	v.threshold = threshold
}

// Threshold returns the threshold override.
func (v *View) Threshold() float64 {
	return v.threshold
}

// Query returns the current query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Envelope returns the envelope of the last finished search.
func (v *View) Envelope() *domain.SearchEnvelope {
	return v.envelope
}

// Results returns the resolved results of the last search.
func (v *View) Results() []domain.ResolvedResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// State returns the current search state.
func (v *View) State() domain.SearchState {
	return v.state
}

// Searching reports whether a search is running.
func (v *View) Searching() bool {
	return v.searching
}

// InputFocused returns whether the query input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// StatusBar returns the status bar for messages from outside the view.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Reset cancels any running search and returns to an empty query.
func (v *View) Reset() tea.Cmd {
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.events = nil
	v.generation++
	v.searching = false
	v.cancelled = false
	v.state = domain.StateIdle
	v.envelope = nil
	v.err = nil
	v.list.SetResults(nil)
	v.input.Reset()
	v.focusInput = true
	v.statusbar.Clear()
	return v.input.Focus()
}
