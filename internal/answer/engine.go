// Package answer implements retrieval-augmented question answering over
// the page index.
//
// The flow is linear: embed the question, retrieve the nearest pages,
// render them into a prompt, and complete. Each stage failure maps to a
// typed sentinel so callers can distinguish an embedding outage from a
// generation one; FallbackText renders any of them as a user-facing
// string.
package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/vectorindex"
)

var (
	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmbedding indicates the question could not be embedded.
	ErrEmbedding = errors.New("embedding question")

	// ErrRetrieval indicates the index query failed.
	ErrRetrieval = errors.New("retrieving context")

	// ErrGeneration indicates the completion call failed.
	ErrGeneration = errors.New("generating answer")
)

// Index is the slice of the vector index the engine queries.
type Index interface {
	Query(ctx context.Context, vector []float32, opts ...vectorindex.QueryOption) ([]vectorindex.Match, error)
}

// Completer produces a text completion for a prompt. Implemented by the
// Genkit adapter in the app package and by mocks in tests.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures an Engine.
type Options struct {
	// TopK is the default number of context pages per question.
	TopK int
	// Namespace restricts retrieval to one index partition.
	Namespace string
	// EmbedderModel is compared against the embedding_model recorded in
	// retrieved metadata; mismatches are logged, not fatal.
	EmbedderModel string
}

// Result is a successful answer with its supporting context.
type Result struct {
	Answer  string
	Context []ContextItem
}

// Engine answers questions using retrieved page context.
type Engine struct {
	index     Index
	embedder  ai.Embedder
	completer Completer
	opts      Options
	logger    log.Logger
}

// New creates an answering engine.
func New(index Index, embedder ai.Embedder, completer Completer, opts Options, logger log.Logger) *Engine {
	if opts.TopK < 1 {
		opts.TopK = 5
	}
	return &Engine{
		index:     index,
		embedder:  embedder,
		completer: completer,
		opts:      opts,
		logger:    logger,
	}
}

// Answer runs the full retrieval-augmented flow for one question. topK
// overrides the engine default when positive.
func (e *Engine) Answer(ctx context.Context, question string, topK int) (Result, error) {
	if question == "" {
		return Result{}, ErrEmptyQuestion
	}
	if topK < 1 {
		topK = e.opts.TopK
	}

	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(question, nil)},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(resp.Embeddings) == 0 {
		return Result{}, fmt.Errorf("%w: embedder returned no embeddings", ErrEmbedding)
	}

	matches, err := e.index.Query(ctx, resp.Embeddings[0].Embedding,
		vectorindex.WithTopK(topK),
		vectorindex.WithNamespace(e.opts.Namespace),
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	items := e.contextItems(matches)
	prompt := buildPrompt(items, question)

	answer, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	e.logger.Debug("answered question", "context_pages", len(items), "top_k", topK)
	return Result{Answer: answer, Context: items}, nil
}

// contextItems maps index matches into prompt context. Missing metadata
// degrades to "Unknown" fields rather than dropping the match.
func (e *Engine) contextItems(matches []vectorindex.Match) []ContextItem {
	items := make([]ContextItem, 0, len(matches))
	for _, match := range matches {
		meta := match.Metadata

		if model, ok := meta["embedding_model"].(string); ok &&
			e.opts.EmbedderModel != "" && model != e.opts.EmbedderModel {
			e.logger.Warn("entry embedded with a different model",
				"entry", match.ID, "entry_model", model, "query_model", e.opts.EmbedderModel)
		}

		item := ContextItem{Document: "Unknown Document", PageNum: "Unknown Page"}
		if doc, ok := meta["document"].(string); ok && doc != "" {
			item.Document = doc
		}
		if page := metaString(meta["page_num"]); page != "" {
			item.PageNum = page
		}
		if preview, ok := meta["text_preview"].(string); ok && preview != "" {
			item.Content = preview
		}
		items = append(items, item)
	}
	return items
}

// metaString renders a metadata value that may have decoded as a string or
// a JSON number.
func metaString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return fmt.Sprintf("%d", int64(value))
	case int:
		return fmt.Sprintf("%d", value)
	default:
		return ""
	}
}

// FallbackText renders any engine error as the user-facing answer string.
func FallbackText(err error) string {
	return fmt.Sprintf("An error occurred: %v", err)
}
