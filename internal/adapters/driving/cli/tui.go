package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/config/file"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for zoomin.

Each search shows its three stages as they run and can be cancelled.

Controls:
  Enter    - Search
  Esc      - Cancel search / back
  ↑/k, ↓/j - Navigate results
  n, /     - New search
  Tab      - Folders
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runProgram runs the bubbletea program; replaced in tests.
var runProgram = func(p *tea.Program) error {
	_, err := p.Run()
	return err
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if retrievalService == nil {
		return retrievalUnavailable()
	}

	app, err := tui.NewApp(&tui.Ports{
		Retrieval: retrievalService,
		Catalog:   catalogService,
		Settings:  settingsService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	watchPrompts(ctx, func(name string) {
		p.Send(messages.PromptsReloaded{Name: name})
	})

	if err := runProgram(p); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// watchPrompts reloads the prompt store while ctx is live. onReload, if set,
// is called with the name of each changed prompt.
func watchPrompts(ctx context.Context, onReload func(name string)) {
	if promptStore == nil || promptDir == "" {
		return
	}
	if err := os.MkdirAll(promptDir, 0o700); err != nil {
		logger.Warn("prompt directory: %v", err)
		return
	}
	changes, err := file.WatchPrompts(ctx, promptDir, promptStore)
	if err != nil {
		logger.Warn("prompt reload disabled: %v", err)
		return
	}
	go func() {
		for name := range changes {
			logger.Info("prompt %s reloaded", name)
			if onReload != nil {
				onReload(name)
			}
		}
	}()
}
