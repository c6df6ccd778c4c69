package answer

import (
	"fmt"
	"strings"
)

// promptTemplate frames the retrieved context and the question for the
// completion model.
const promptTemplate = "Using the following context, answer the question:\n\nContext:\n%s\n\nQuestion: %s\nAnswer:"

// ContextItem is one retrieved page, ready to be rendered into the prompt.
type ContextItem struct {
	Document string
	PageNum  string
	Content  string
}

// formatContext renders retrieved pages into the prompt's context block.
func formatContext(items []ContextItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("Document: %s, Page: %s\nContent: %s",
			item.Document, item.PageNum, item.Content))
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt assembles the full completion prompt.
func buildPrompt(items []ContextItem, question string) string {
	return fmt.Sprintf(promptTemplate, formatContext(items), question)
}
