package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// previewChars caps the content text printed per result in text output.
const previewChars = 400

var (
	searchJSON      bool
	searchYAML      bool
	searchThreshold float64
	searchTimeout   time.Duration
	searchQuiet     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search extraction records by zooming in",
	Long: `Runs the three-stage zoom-in search: folders are scored against the
query, files inside the surviving folders are scored next, and finally the
content items of the surviving files are selected and resolved.

All words after "search" form the query. Stage progress is printed to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the search envelope as JSON")
	searchCmd.Flags().BoolVar(&searchYAML, "yaml", false, "output the search envelope as YAML")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum folder/file score in (0, 1]; 0 uses the configured default")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 0, "per-stage timeout (default from settings)")
	searchCmd.Flags().BoolVarP(&searchQuiet, "quiet", "q", false, "do not print stage progress")
	searchCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return retrievalUnavailable()
	}
	if searchThreshold < 0 || searchThreshold > 1 {
		return fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidInput)
	}

	query := strings.Join(args, " ")
	opts := domain.SearchOptions{
		Threshold:    searchThreshold,
		StageTimeout: searchTimeout,
	}

	var observer driving.ProgressObserver
	if !searchQuiet {
		observer = progressPrinter(cmd.ErrOrStderr())
	}

	env, err := retrievalService.Search(cmd.Context(), query, opts, observer)
	if env != nil {
		if outErr := outputEnvelope(cmd, env); outErr != nil {
			return outErr
		}
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return nil
}

// progressPrinter writes one line per state transition.
func progressPrinter(w io.Writer) driving.ProgressObserver {
	return driving.ProgressFunc(func(e domain.ProgressEvent) {
		if e.Stage > 0 {
			fmt.Fprintf(w, "[%d/3] %s\n", e.Stage, e.Message)
			return
		}
		fmt.Fprintf(w, "%s\n", e.Message)
	})
}

func outputEnvelope(cmd *cobra.Command, env *domain.SearchEnvelope) error {
	switch {
	case searchJSON:
		return outputSearchJSON(cmd, env)
	case searchYAML:
		return outputSearchYAML(cmd, env)
	default:
		outputSearchText(cmd, env)
		return nil
	}
}

func outputSearchJSON(cmd *cobra.Command, env *domain.SearchEnvelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchYAML(cmd *cobra.Command, env *domain.SearchEnvelope) error {
	data, err := marshalYAML(env)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

// marshalYAML renders v as block-style YAML using its JSON field names
// and field order.
func marshalYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	clearStyle(&node)
	return yaml.Marshal(&node)
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func outputSearchText(cmd *cobra.Command, env *domain.SearchEnvelope) {
	cmd.Printf("Query: %s\n\n", env.Query)

	cmd.Printf("Folders (%d):\n", len(env.Folders))
	for _, f := range env.Folders {
		cmd.Printf("  %.2f  %s\n", f.Score, f.Folder.ID)
	}
	cmd.Println()

	cmd.Printf("Files (%d):\n", len(env.Files))
	for _, f := range env.Files {
		cmd.Printf("  %.2f  %s", f.Score, f.File.ID)
		if f.File.Title != "" {
			cmd.Printf("  %q", f.File.Title)
		}
		cmd.Println()
	}
	cmd.Println()

	if len(env.Results) == 0 {
		cmd.Println("No results found.")
	} else {
		cmd.Println("Results:")
		cmd.Println()
		for i := range env.Results {
			printResult(cmd, i+1, &env.Results[i])
		}
	}

	if env.Diagnostics.HasWarnings() {
		cmd.Printf("Warnings: %d dropped pointers, %d skipped files, %d invalid oracle entries\n",
			env.Diagnostics.DroppedPointers, env.Diagnostics.SkippedFiles, env.Diagnostics.InvalidOracleEntries)
		for _, w := range env.Diagnostics.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}
	cmd.Printf("Elapsed: %s\n", env.Elapsed.Round(time.Millisecond))
}

func printResult(cmd *cobra.Command, n int, r *domain.ResolvedResult) {
	label := r.Content.Label()
	if label == "" {
		label = fmt.Sprintf("%s #%d", r.Pointer.Type, r.Pointer.Index)
	}
	cmd.Printf("  [%d] %s: %s\n", n, r.Pointer.Type, label)
	title := r.FileTitle
	if title == "" {
		title = r.Filename
	}
	cmd.Printf("      File: %s/%s (%s)\n", r.Folder, r.Filename, title)
	if r.Reason != "" {
		cmd.Printf("      Reason: %s\n", r.Reason)
	}
	for _, line := range strings.Split(preview(r.Content.Text(), previewChars), "\n") {
		cmd.Printf("      %s\n", line)
	}
	cmd.Println()
}

func preview(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
