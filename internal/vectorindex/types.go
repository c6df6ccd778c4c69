// Package vectorindex stores and searches page embeddings in PostgreSQL
// with pgvector.
//
// The index is partitioned by namespace. Entries carry free-form metadata
// alongside the embedding; queries return the stored metadata with a cosine
// similarity score so callers never need a second lookup.
package vectorindex

import (
	"errors"
	"fmt"
)

// Dimension is the embedding dimensionality of the pages schema. It matches
// text-embedding-3-small output; changing it requires a schema migration.
const Dimension = 1536

var (
	// ErrDimensionMismatch indicates a vector of the wrong dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyID indicates an entry with no identifier.
	ErrEmptyID = errors.New("entry id is empty")

	// ErrInvalidTopK indicates a non-positive result count.
	ErrInvalidTopK = errors.New("top-k must be positive")
)

// Entry is a single page record to upsert into the index.
type Entry struct {
	// ID identifies the page ({document_name}_{page_num}). Upserting an
	// existing ID replaces the stored vector and metadata.
	ID string

	// Vector is the page embedding. Must have exactly Dimension elements.
	Vector []float32

	// Metadata is stored as JSONB alongside the vector and returned
	// verbatim by Query and ListMetadata.
	Metadata map[string]any
}

// Match is a single query result.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// NamespaceStats describes one namespace of the index.
type NamespaceStats struct {
	VectorCount int
}

// Stats describes the whole index.
type Stats struct {
	TotalVectorCount int
	Namespaces       map[string]NamespaceStats
}

// QueryOptions collects per-query settings.
type QueryOptions struct {
	TopK      int
	Namespace string
}

// QueryOption customizes a single Query call.
type QueryOption func(*QueryOptions)

// WithTopK sets the number of matches to return.
func WithTopK(k int) QueryOption {
	return func(o *QueryOptions) { o.TopK = k }
}

// WithNamespace restricts the query to one namespace.
func WithNamespace(ns string) QueryOption {
	return func(o *QueryOptions) { o.Namespace = ns }
}

// ResolveOptions applies opts over the defaults.
func ResolveOptions(opts ...QueryOption) QueryOptions {
	options := QueryOptions{TopK: 5}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// validateVector checks the embedding dimensionality.
func validateVector(v []float32) error {
	if len(v) != Dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), Dimension)
	}
	return nil
}
