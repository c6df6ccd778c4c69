package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	papersMax       int
	papersSummaries bool
)

var papersCmd = &cobra.Command{
	Use:   "papers [query]",
	Short: "Search arxiv for scholarly papers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPapers,
}

func init() {
	papersCmd.Flags().IntVar(&papersMax, "max", 5, "maximum number of papers")
	papersCmd.Flags().BoolVar(&papersSummaries, "summaries", false, "skip page scraping and show abstracts only")
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	query := strings.Join(args, " ")

	search := a.Arxiv.Search
	if papersSummaries {
		search = a.Arxiv.SearchSummaries
	}
	papers := search(cmd.Context(), query, papersMax)
	if len(papers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No papers found.")
		return nil
	}

	for _, paper := range papers {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n  Authors: %s\n\n%s\n\n",
			paper.Title, paper.Link, strings.Join(paper.Authors, ", "), paper.Content)
	}
	return nil
}
