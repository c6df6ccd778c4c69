package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/docsage/docsage/internal/log"
)

// mockQuerier records calls and returns canned data.
type mockQuerier struct {
	upserted  []mockUpsert
	searchNS  string
	searchTop int
	rows      []pageRow
	counts    map[string]int
	metadata  [][]byte
	deleted   int64
	err       error
}

type mockUpsert struct {
	id        string
	namespace string
	metadata  []byte
}

func (m *mockQuerier) UpsertPage(_ context.Context, id, namespace string, _ pgvector.Vector, metadata []byte) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, mockUpsert{id: id, namespace: namespace, metadata: metadata})
	return nil
}

func (m *mockQuerier) SearchPages(_ context.Context, namespace string, _ pgvector.Vector, limit int) ([]pageRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.searchNS = namespace
	m.searchTop = limit
	return m.rows, nil
}

func (m *mockQuerier) CountByNamespace(_ context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.counts, nil
}

func (m *mockQuerier) ListMetadataByNamespace(_ context.Context, _ string) ([][]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.metadata, nil
}

func (m *mockQuerier) DeleteByDocument(_ context.Context, _, _ string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.deleted, nil
}

func testVector(fill float32) []float32 {
	v := make([]float32, Dimension)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestUpsert(t *testing.T) {
	querier := &mockQuerier{}
	idx := New(querier, log.NewNop())

	entries := []Entry{
		{ID: "attention is all you need_1", Vector: testVector(0.1), Metadata: map[string]any{"document": "attention is all you need", "page_num": 1}},
		{ID: "attention is all you need_2", Vector: testVector(0.2), Metadata: map[string]any{"document": "attention is all you need", "page_num": 2}},
	}

	if err := idx.Upsert(context.Background(), "research", entries); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if len(querier.upserted) != 2 {
		t.Fatalf("upserted %d entries, want 2", len(querier.upserted))
	}
	if querier.upserted[0].namespace != "research" {
		t.Errorf("namespace = %q, want %q", querier.upserted[0].namespace, "research")
	}

	var metadata map[string]any
	if err := json.Unmarshal(querier.upserted[0].metadata, &metadata); err != nil {
		t.Fatalf("stored metadata is not JSON: %v", err)
	}
	if metadata["document"] != "attention is all you need" {
		t.Errorf("metadata document = %v", metadata["document"])
	}
}

func TestUpsert_Validation(t *testing.T) {
	idx := New(&mockQuerier{}, log.NewNop())
	ctx := context.Background()

	err := idx.Upsert(ctx, "", []Entry{{ID: "", Vector: testVector(0)}})
	if !errors.Is(err, ErrEmptyID) {
		t.Errorf("empty id: got %v, want ErrEmptyID", err)
	}

	err = idx.Upsert(ctx, "", []Entry{{ID: "doc_1", Vector: []float32{1, 2, 3}}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short vector: got %v, want ErrDimensionMismatch", err)
	}
}

func TestQuery(t *testing.T) {
	querier := &mockQuerier{
		rows: []pageRow{
			{ID: "doc_1", Score: 0.93, Metadata: []byte(`{"document":"doc","page_num":1}`)},
			{ID: "doc_2", Score: 0.81, Metadata: []byte(`{"document":"doc","page_num":2}`)},
		},
	}
	idx := New(querier, log.NewNop())

	matches, err := idx.Query(context.Background(), testVector(0.5), WithTopK(2), WithNamespace("research"))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if querier.searchNS != "research" || querier.searchTop != 2 {
		t.Errorf("querier called with ns=%q top=%d", querier.searchNS, querier.searchTop)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != "doc_1" || matches[0].Score != 0.93 {
		t.Errorf("first match = %+v", matches[0])
	}
	if matches[0].Metadata["document"] != "doc" {
		t.Errorf("metadata not decoded: %+v", matches[0].Metadata)
	}
}

func TestQuery_Validation(t *testing.T) {
	idx := New(&mockQuerier{}, log.NewNop())
	ctx := context.Background()

	if _, err := idx.Query(ctx, testVector(0), WithTopK(0)); !errors.Is(err, ErrInvalidTopK) {
		t.Errorf("zero top-k: got %v, want ErrInvalidTopK", err)
	}
	if _, err := idx.Query(ctx, []float32{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short vector: got %v, want ErrDimensionMismatch", err)
	}
}

func TestStats(t *testing.T) {
	querier := &mockQuerier{counts: map[string]int{"": 10, "research": 32}}
	idx := New(querier, log.NewNop())

	stats, err := idx.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVectorCount != 42 {
		t.Errorf("total = %d, want 42", stats.TotalVectorCount)
	}
	if stats.Namespaces["research"].VectorCount != 32 {
		t.Errorf("research count = %d, want 32", stats.Namespaces["research"].VectorCount)
	}
}

func TestListMetadata(t *testing.T) {
	querier := &mockQuerier{metadata: [][]byte{
		[]byte(`{"document":"a"}`),
		[]byte(`{"document":"b"}`),
	}}
	idx := New(querier, log.NewNop())

	metas, err := idx.ListMetadata(context.Background(), "")
	if err != nil {
		t.Fatalf("ListMetadata: %v", err)
	}
	if len(metas) != 2 || metas[1]["document"] != "b" {
		t.Errorf("metadata = %+v", metas)
	}
}

func TestQuerierErrorsPropagate(t *testing.T) {
	boom := fmt.Errorf("connection refused")
	idx := New(&mockQuerier{err: boom}, log.NewNop())
	ctx := context.Background()

	if err := idx.Upsert(ctx, "", []Entry{{ID: "x", Vector: testVector(0)}}); !errors.Is(err, boom) {
		t.Errorf("Upsert error = %v", err)
	}
	if _, err := idx.Query(ctx, testVector(0)); !errors.Is(err, boom) {
		t.Errorf("Query error = %v", err)
	}
	if _, err := idx.Stats(ctx); !errors.Is(err, boom) {
		t.Errorf("Stats error = %v", err)
	}
}
