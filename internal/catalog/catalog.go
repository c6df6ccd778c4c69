// Package catalog lists the documents known to the vector index.
package catalog

import (
	"context"
	"sort"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/vectorindex"
)

// unknownTitle stands in for entries whose metadata carries no document
// name.
const unknownTitle = "Unknown Title"

// Index is the slice of the vector index the catalog reads.
type Index interface {
	Stats(ctx context.Context) (vectorindex.Stats, error)
	Query(ctx context.Context, vector []float32, opts ...vectorindex.QueryOption) ([]vectorindex.Match, error)
}

// MetadataLister is an optional upgrade interface. When the index supports
// a direct metadata scan the catalog uses it instead of the zero-vector
// query fallback.
type MetadataLister interface {
	ListMetadata(ctx context.Context, namespace string) ([]map[string]any, error)
}

// Catalog derives the distinct document names stored in the index.
type Catalog struct {
	index  Index
	logger log.Logger
}

// New creates a Catalog over the given index.
func New(index Index, logger log.Logger) *Catalog {
	return &Catalog{index: index, logger: logger}
}

// Documents returns the sorted distinct document names across all
// namespaces. The operation is fail-soft: a stats failure yields an empty
// list, and a namespace that fails to scan contributes nothing while the
// remaining namespaces still report. Errors are logged, never returned.
func (c *Catalog) Documents(ctx context.Context) []string {
	stats, err := c.index.Stats(ctx)
	if err != nil {
		c.logger.Error("reading index stats", "error", err)
		return []string{}
	}

	names := make(map[string]struct{})
	for namespace, ns := range stats.Namespaces {
		if ns.VectorCount == 0 {
			continue
		}
		metas, err := c.namespaceMetadata(ctx, namespace, ns.VectorCount)
		if err != nil {
			c.logger.Error("reading namespace metadata",
				"namespace", namespace, "error", err)
			continue
		}
		for _, meta := range metas {
			names[documentName(meta)] = struct{}{}
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// namespaceMetadata fetches every entry's metadata in one namespace,
// preferring a direct scan over the zero-vector query.
func (c *Catalog) namespaceMetadata(ctx context.Context, namespace string, count int) ([]map[string]any, error) {
	if lister, ok := c.index.(MetadataLister); ok {
		return lister.ListMetadata(ctx, namespace)
	}

	// Zero-vector probe: cosine distance is uniform against the zero
	// vector, so with top-k equal to the namespace size every entry comes
	// back.
	probe := make([]float32, vectorindex.Dimension)
	matches, err := c.index.Query(ctx, probe,
		vectorindex.WithNamespace(namespace),
		vectorindex.WithTopK(count),
	)
	if err != nil {
		return nil, err
	}

	metas := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		metas = append(metas, match.Metadata)
	}
	return metas, nil
}

// documentName extracts the document name from entry metadata.
func documentName(meta map[string]any) string {
	if name, ok := meta["document"].(string); ok && name != "" {
		return name
	}
	return unknownTitle
}
