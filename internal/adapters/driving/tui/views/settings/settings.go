// Package settings provides the settings view for the TUI.
package settings

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// thresholdStep is the increment applied by the left and right keys.
const thresholdStep = 0.05

// View shows the effective oracle, retrieval and storage settings and lets
// the user tune the relevance threshold used by subsequent searches.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	settingsService driving.SettingsService

	settings      *domain.AppSettings
	validationErr error
	err           error

	// threshold is the edited value, committed on save.
	threshold float64
	dirty     bool
	saved     bool

	width  int
	height int
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		keymap:          keymap.DefaultKeyMap(),
		settingsService: settingsService,
		width:           80,
		height:          24,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

// loadSettings returns a command that loads current settings.
func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: fmt.Errorf("settings service not available")}
		}
		settings, err := svc.Get()
		if err != nil {
			return messages.SettingsLoaded{Err: err}
		}
		return messages.SettingsLoaded{Settings: settings, ValidationErr: svc.Validate()}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
			v.validationErr = msg.ValidationErr
			v.threshold = msg.Settings.Retrieval.Threshold
			v.dirty = false
		}

	case messages.SettingsSaved:
		v.err = msg.Err
		if msg.Err == nil {
			v.saved = true
			return v, v.loadSettings()
		}

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.settings == nil {
		return v, nil
	}

	switch keyStr := msg.String(); {
	case keymap.Matches(keyStr, v.keymap.Lower):
		v.adjustThreshold(-thresholdStep)
	case keymap.Matches(keyStr, v.keymap.Raise):
		v.adjustThreshold(thresholdStep)
	case keymap.Matches(keyStr, v.keymap.Save):
		if v.dirty {
			return v, v.saveThreshold()
		}
	}
	return v, nil
}

func (v *View) adjustThreshold(delta float64) {
	t := math.Round((v.threshold+delta)*100) / 100
	t = max(thresholdStep, min(1, t))
	if t != v.threshold {
		v.threshold = t
		v.dirty = true
		v.saved = false
	}
}

// saveThreshold persists the edited threshold.
func (v *View) saveThreshold() tea.Cmd {
	svc, threshold := v.settingsService, v.threshold
	return func() tea.Msg {
		err := svc.SetRetrieval(domain.RetrievalSettings{Threshold: threshold})
		return messages.SettingsSaved{Err: err}
	}
}

// View renders the settings view.
func (v *View) View() string {
	sections := []string{v.styles.Title.Render("Settings"), ""}

	switch {
	case v.err != nil && v.settings == nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.settings == nil:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	default:
		sections = append(sections, v.renderSettings())
		if v.err != nil {
			sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
		}
	}

	sections = append(sections, "", v.styles.Help.Render("←/→: threshold | enter: save | esc: back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderSettings() string {
	var b strings.Builder
	s := v.settings

	v.renderOracle(&b, "Classifier", s.Classifier)
	v.renderOracle(&b, "Extractor", s.Extractor)

	b.WriteString(v.styles.Subtitle.Render("Retrieval"))
	b.WriteString("\n")
	threshold := fmt.Sprintf("  Threshold:        ◀ %.2f ▶", v.threshold)
	switch {
	case v.dirty:
		threshold += v.styles.Warning.Render("  (unsaved)")
	case v.saved:
		threshold += v.styles.Success.Render("  (saved)")
	}
	b.WriteString(v.styles.Selected.Render(threshold))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Catch-all folder: %s\n", s.Retrieval.CatchAllFolder)
	fmt.Fprintf(&b, "  Stage timeout:    %s\n", s.Retrieval.StageTimeout)
	fmt.Fprintf(&b, "  Max item chars:   %d\n\n", s.Retrieval.MaxItemChars)

	b.WriteString(v.styles.Subtitle.Render("Storage"))
	b.WriteString("\n")
	path := s.Storage.Path
	if path == "" {
		path = "(default)"
	}
	fmt.Fprintf(&b, "  Backend: %s\n  Path:    %s\n\n", s.Storage.Backend, path)

	if v.validationErr != nil {
		b.WriteString(v.styles.Warning.Render("⚠ " + v.validationErr.Error()))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Run 'zoomin settings oracle' to configure the oracles."))
	} else {
		b.WriteString(v.styles.Success.Render("✓ Configuration is valid"))
	}
	return b.String()
}

func (v *View) renderOracle(b *strings.Builder, title string, o domain.OracleSettings) {
	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n")
	fmt.Fprintf(b, "  Provider: %s\n", o.Provider.Description())
	fmt.Fprintf(b, "  Model:    %s\n", o.Model)
	if o.Provider.IsLocal() {
		fmt.Fprintf(b, "  Base URL: %s\n", o.BaseURL)
	}
	b.WriteString("\n")
}

// Threshold returns the edited threshold.
func (v *View) Threshold() float64 {
	return v.threshold
}

// Dirty reports whether the threshold has unsaved edits.
func (v *View) Dirty() bool {
	return v.dirty
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Err returns the last load or save error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}
