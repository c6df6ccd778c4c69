package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents stored in the index",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	a, cleanup, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	docs := a.Catalog.Documents(cmd.Context())
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents in the index.")
		return nil
	}
	for _, doc := range docs {
		fmt.Fprintln(cmd.OutOrStdout(), doc)
	}
	return nil
}
