package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/docsage/docsage/internal/log"
)

// Querier defines the database operations the index needs. Satisfied by
// pgQuerier in production and by mocks in tests.
type Querier interface {
	UpsertPage(ctx context.Context, id, namespace string, embedding pgvector.Vector, metadata []byte) error
	SearchPages(ctx context.Context, namespace string, embedding pgvector.Vector, limit int) ([]pageRow, error)
	CountByNamespace(ctx context.Context) (map[string]int, error)
	ListMetadataByNamespace(ctx context.Context, namespace string) ([][]byte, error)
	DeleteByDocument(ctx context.Context, namespace, document string) (int64, error)
}

// pageRow is a raw search result before metadata decoding.
type pageRow struct {
	ID       string
	Score    float64
	Metadata []byte
}

// Index is the namespaced page embedding index.
type Index struct {
	querier Querier
	logger  log.Logger
}

// New creates an Index backed by the given querier.
func New(querier Querier, logger log.Logger) *Index {
	return &Index{querier: querier, logger: logger}
}

// Upsert writes entries into the given namespace. Existing IDs are
// replaced. The call fails on the first bad entry; nothing is rolled back,
// upserts are idempotent so a retry converges.
func (idx *Index) Upsert(ctx context.Context, namespace string, entries []Entry) error {
	for i, entry := range entries {
		if entry.ID == "" {
			return fmt.Errorf("entry %d: %w", i, ErrEmptyID)
		}
		if err := validateVector(entry.Vector); err != nil {
			return fmt.Errorf("entry %q: %w", entry.ID, err)
		}

		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("entry %q: encoding metadata: %w", entry.ID, err)
		}

		if err := idx.querier.UpsertPage(ctx, entry.ID, namespace, pgvector.NewVector(entry.Vector), metadata); err != nil {
			return fmt.Errorf("entry %q: %w", entry.ID, err)
		}
	}

	idx.logger.Debug("upserted entries", "namespace", namespace, "count", len(entries))
	return nil
}

// Query returns the entries nearest to the given vector by cosine
// similarity, best first.
func (idx *Index) Query(ctx context.Context, vector []float32, opts ...QueryOption) ([]Match, error) {
	options := ResolveOptions(opts...)

	if options.TopK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, options.TopK)
	}
	if err := validateVector(vector); err != nil {
		return nil, err
	}

	rows, err := idx.querier.SearchPages(ctx, options.Namespace, pgvector.NewVector(vector), options.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]any
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata for %q: %w", row.ID, err)
			}
		}
		matches = append(matches, Match{ID: row.ID, Score: row.Score, Metadata: metadata})
	}

	return matches, nil
}

// Stats returns per-namespace vector counts and the overall total.
func (idx *Index) Stats(ctx context.Context) (Stats, error) {
	counts, err := idx.querier.CountByNamespace(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("counting vectors: %w", err)
	}

	stats := Stats{Namespaces: make(map[string]NamespaceStats, len(counts))}
	for ns, count := range counts {
		stats.Namespaces[ns] = NamespaceStats{VectorCount: count}
		stats.TotalVectorCount += count
	}
	return stats, nil
}

// ListMetadata returns the metadata of every entry in a namespace without
// touching the embeddings. Cheaper than a zero-vector similarity scan when
// the whole namespace is wanted.
func (idx *Index) ListMetadata(ctx context.Context, namespace string) ([]map[string]any, error) {
	raws, err := idx.querier.ListMetadataByNamespace(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("listing metadata: %w", err)
	}

	out := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		var metadata map[string]any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata: %w", err)
			}
		}
		out = append(out, metadata)
	}
	return out, nil
}

// DeleteDocument removes every page of a document from a namespace and
// returns the number of pages removed.
func (idx *Index) DeleteDocument(ctx context.Context, namespace, document string) (int64, error) {
	n, err := idx.querier.DeleteByDocument(ctx, namespace, document)
	if err != nil {
		return 0, fmt.Errorf("deleting document %q: %w", document, err)
	}
	idx.logger.Info("deleted document pages", "namespace", namespace, "document", document, "pages", n)
	return n, nil
}
