package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/answer"
)

var (
	askTopK     int
	showContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question using retrieved document context",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of context pages to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&showContext, "show-context", false, "print the retrieved context pages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	question := strings.Join(args, " ")

	result, err := a.Engine.Answer(cmd.Context(), question, askTopK)
	if err != nil {
		// The engine's errors are part of the answer surface: render the
		// fallback text instead of failing the command.
		a.Logger.Error("answering failed", "error", err)
		fmt.Fprintln(cmd.OutOrStdout(), answer.FallbackText(err))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Answer)

	if showContext {
		fmt.Fprintln(cmd.OutOrStdout())
		for _, item := range result.Context {
			fmt.Fprintf(cmd.OutOrStdout(), "--- Document: %s, Page: %s\n%s\n",
				item.Document, item.PageNum, item.Content)
		}
	}
	return nil
}
