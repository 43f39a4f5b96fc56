// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// Theme is the colour palette of the TUI.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	Surface    lipgloss.Color

	// ContentTypes colours the badge of each content item type.
	ContentTypes map[domain.ContentType]lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#0EA5A4"),
		Secondary:  lipgloss.Color("#60A5FA"),
		Background: lipgloss.Color("#11161C"),
		Foreground: lipgloss.Color("#E2E8F0"),
		Muted:      lipgloss.Color("#64748B"),
		Success:    lipgloss.Color("#4ADE80"),
		Warning:    lipgloss.Color("#FBBF24"),
		Error:      lipgloss.Color("#F87171"),
		Border:     lipgloss.Color("#334155"),
		Surface:    lipgloss.Color("#0B1015"),
		ContentTypes: map[domain.ContentType]lipgloss.Color{
			domain.ContentSection: lipgloss.Color("#60A5FA"),
			domain.ContentTable:   lipgloss.Color("#A78BFA"),
			domain.ContentChart:   lipgloss.Color("#F472B6"),
			domain.ContentImage:   lipgloss.Color("#FB923C"),
			domain.ContentReading: lipgloss.Color("#34D399"),
		},
	}
}

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// StageDone, StageActive and StagePending mark pipeline stages.
	StageDone    lipgloss.Style
	StageActive  lipgloss.Style
	StagePending lipgloss.Style

	// Score renders oracle scores; see ScoreStyle for graded colours.
	Score lipgloss.Style

	// Badge renders content type tags; see ContentBadge for per-type colours.
	Badge lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	rounded := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)

	return &Styles{
		theme: theme,

		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Warning:  fg(theme.Warning),
		Help:     fg(theme.Muted),

		InputField: rounded.Padding(0, 1),
		Border:     rounded,
		StatusBar:  fg(theme.Muted).Background(theme.Surface).Padding(0, 1),

		StageDone:    fg(theme.Success),
		StageActive:  fg(theme.Secondary).Bold(true),
		StagePending: fg(theme.Muted),

		Score: fg(theme.Warning),
		Badge: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Background).
			Background(theme.Secondary).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ScoreStyle grades a score against the threshold it had to pass: well above
// it renders as success, just above as warning, below as muted.
func (s *Styles) ScoreStyle(score, threshold float64) lipgloss.Style {
	switch {
	case score < threshold:
		return s.Muted
	case score >= threshold+(1-threshold)/2:
		return s.Success
	default:
		return s.Score
	}
}

// RenderScore formats a score with two decimals in its graded style.
func (s *Styles) RenderScore(score, threshold float64) string {
	return s.ScoreStyle(score, threshold).Render(fmt.Sprintf("%.2f", score))
}

// ContentBadge returns the badge style of a content type.
func (s *Styles) ContentBadge(t domain.ContentType) lipgloss.Style {
	if c, ok := s.theme.ContentTypes[t]; ok {
		return s.Badge.Background(c)
	}
	return s.Badge
}
