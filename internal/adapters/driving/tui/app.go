package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/views/filecontent"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/views/folders"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	searchView   *search.View
	foldersView  *folders.View
	fileView     *filecontent.View
	settingsView *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// helpReturn is the view restored when help closes.
	helpReturn messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingRetrievalService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		searchView:   search.NewView(s, km, ports.Retrieval),
		foldersView:  folders.NewView(s, km, ports.Catalog),
		fileView:     filecontent.NewView(s, ports.Catalog),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewSearch,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.foldersView.WithContext(ctx)
	a.fileView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("zoomin"),
		a.searchView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.FoldersLoaded:
		a.foldersView, cmd = a.foldersView.Update(msg)
		return a, cmd

	case messages.FileSelected:
		a.currentView = messages.ViewFile
		return a, a.fileView.Open(msg.Pointer)

	case messages.FileLoaded:
		a.fileView, cmd = a.fileView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.SettingsSaved:
		if msg.Err == nil {
			a.searchView.SetThreshold(a.settingsView.Threshold())
		}
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.PromptsReloaded:
		if !a.searchView.Searching() {
			a.searchView.StatusBar().SetMessage(fmt.Sprintf("Prompt %s reloaded", msg.Name))
		}
		return a, nil
	}

	// Search events, spinner ticks and cursor blinks belong to the search view
	// even while another view is shown.
	a.searchView, cmd = a.searchView.Update(msg)
	return a, cmd
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if keyStr == "ctrl+c" {
		a.searchView.Cancel()
		return a, tea.Quit
	}

	if keymap.Matches(keyStr, a.keymap.Settings) && a.currentView != messages.ViewSettings && !a.searchView.Searching() {
		return a, a.switchView(messages.ViewSettings)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(keyStr, a.keymap.Back) || keymap.Matches(keyStr, a.keymap.Help) {
			return a, a.switchView(a.helpReturn)
		}
		if keymap.Matches(keyStr, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil

	case messages.ViewFile:
		switch {
		case keymap.Matches(keyStr, a.keymap.Back):
			return a, a.switchView(messages.ViewSearch)
		case keymap.Matches(keyStr, a.keymap.Quit):
			return a, tea.Quit
		}
		a.fileView, cmd = a.fileView.Update(msg)
		return a, cmd

	case messages.ViewSettings:
		switch {
		case keymap.Matches(keyStr, a.keymap.Back), keymap.Matches(keyStr, a.keymap.Settings):
			return a, a.switchView(messages.ViewSearch)
		case keymap.Matches(keyStr, a.keymap.Quit):
			return a, tea.Quit
		}
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ViewFolders:
		switch {
		case keymap.Matches(keyStr, a.keymap.Folders), keymap.Matches(keyStr, a.keymap.Back):
			return a, a.switchView(messages.ViewSearch)
		case keymap.Matches(keyStr, a.keymap.Help):
			return a, a.switchView(messages.ViewHelp)
		case keymap.Matches(keyStr, a.keymap.Quit):
			return a, tea.Quit
		}
		a.foldersView, cmd = a.foldersView.Update(msg)
		return a, cmd

	case messages.ViewSearch:
		if !a.searchView.Searching() {
			if keymap.Matches(keyStr, a.keymap.Folders) {
				return a, a.switchView(messages.ViewFolders)
			}
			if !a.searchView.InputFocused() {
				switch {
				case keymap.Matches(keyStr, a.keymap.Help):
					return a, a.switchView(messages.ViewHelp)
				case keymap.Matches(keyStr, a.keymap.Quit):
					return a, tea.Quit
				}
			}
		}
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) switchView(view messages.ViewType) tea.Cmd {
	if view == messages.ViewHelp && a.currentView != messages.ViewHelp {
		a.helpReturn = a.currentView
	}
	a.currentView = view
	switch view {
	case messages.ViewFolders:
		return a.foldersView.Init()
	case messages.ViewSettings:
		return a.settingsView.Init()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewFolders:
		return a.foldersView.View()
	case messages.ViewFile:
		return a.fileView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewSearch:
		return a.searchView.View()
	default:
		return a.searchView.View()
	}
}

// viewHelp renders the keybindings from the keymap.
func (a *App) viewHelp() string {
	groups := a.keymap.FullHelp()
	columns := make([]string, 0, len(groups))
	for _, group := range groups {
		lines := make([]string, 0, len(group))
		for _, b := range group {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("%-8s %s", h.Key, h.Desc))
		}
		columns = append(columns, a.styles.Normal.PaddingRight(4).Render(strings.Join(lines, "\n")))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("Help"),
		"",
		a.styles.Muted.Render("Searches run in three stages: folders, files, then content items."),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		a.styles.Help.Render("[esc] back"),
	)
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SearchView returns the search view.
func (a *App) SearchView() *search.View {
	return a.searchView
}

// FoldersView returns the folders view.
func (a *App) FoldersView() *folders.View {
	return a.foldersView
}

// FileView returns the file content view.
func (a *App) FileView() *filecontent.View {
	return a.fileView
}

// SettingsView returns the settings view.
func (a *App) SettingsView() *settings.View {
	return a.settingsView
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.searchView.SetDimensions(width, height)
	a.foldersView.SetDimensions(width, height)
	a.fileView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
