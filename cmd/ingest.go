package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Embed parsed page records and write them into the index",
	Long: `Ingest reads page-record JSON files from the input directory,
embeds each page, and upserts it into the vector index. Re-running is
safe: page IDs are deterministic, so existing pages are overwritten.

Without an argument the configured ingest.input_dir is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	inputDir := a.Config.Ingest.InputDir
	if len(args) == 1 {
		inputDir = args[0]
	}

	summary, err := a.Pipeline.Run(cmd.Context(), inputDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d pages from %d files (run %s)\n",
		summary.Pages, summary.Files, summary.RunID)
	if len(summary.Documents) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Documents: %s\n", strings.Join(summary.Documents, ", "))
	}
	return nil
}
