package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var websearchMax int

var websearchCmd = &cobra.Command{
	Use:   "websearch [query]",
	Short: "Search the web and scrape result pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWebsearch,
}

func init() {
	websearchCmd.Flags().IntVar(&websearchMax, "max", 5, "maximum number of results")
	rootCmd.AddCommand(websearchCmd)
}

func runWebsearch(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	query := strings.Join(args, " ")

	results := a.WebSearch.Search(cmd.Context(), query, websearchMax)
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
		return nil
	}

	for _, result := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n  %s\n\n%s\n\n",
			result.Title, result.URL, result.Snippet, result.Content)
	}
	return nil
}
