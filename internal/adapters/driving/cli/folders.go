package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var foldersJSON bool

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List folders and their summaries",
	Long: `Lists every folder in the record store with its summary, keywords and
file count. Folders without a summary are not indexed and are never scored.`,
	Args: cobra.NoArgs,
	RunE: runFolders,
}

func init() {
	foldersCmd.Flags().BoolVar(&foldersJSON, "json", false, "output folders as JSON")
	rootCmd.AddCommand(foldersCmd)
}

func runFolders(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	folders, err := catalogService.ListFolders(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	if foldersJSON {
		data, err := json.MarshalIndent(folders, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal folders: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(folders) == 0 {
		cmd.Println("No folders found. Run 'zoomin import <dir>' to load records.")
		return nil
	}

	for _, f := range folders {
		if !f.IsIndexed() {
			cmd.Printf("%s (not indexed)\n\n", f.ID)
			continue
		}
		cmd.Printf("%s (%d files)\n", f.ID, f.FileCount)
		cmd.Printf("  %s\n", f.Summary)
		if len(f.Keywords) > 0 {
			cmd.Printf("  Keywords: %s\n", strings.Join(f.Keywords, ", "))
		}
		cmd.Println()
	}
	return nil
}
