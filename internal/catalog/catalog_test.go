package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/vectorindex"
)

// mockIndex implements Index with a canned query response per namespace.
type mockIndex struct {
	stats      vectorindex.Stats
	statsErr   error
	matches    map[string][]vectorindex.Match
	queryErr   error
	queriedNS  []string
	queriedTop []int
}

func (m *mockIndex) Stats(context.Context) (vectorindex.Stats, error) {
	return m.stats, m.statsErr
}

func (m *mockIndex) Query(_ context.Context, _ []float32, opts ...vectorindex.QueryOption) ([]vectorindex.Match, error) {
	options := vectorindex.ResolveOptions(opts...)
	m.queriedNS = append(m.queriedNS, options.Namespace)
	m.queriedTop = append(m.queriedTop, options.TopK)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.matches[options.Namespace], nil
}

// listingIndex adds the MetadataLister upgrade to mockIndex.
type listingIndex struct {
	mockIndex
	metas    map[string][]map[string]any
	listErrs map[string]error
	listedNS []string
}

func (l *listingIndex) ListMetadata(_ context.Context, namespace string) ([]map[string]any, error) {
	l.listedNS = append(l.listedNS, namespace)
	if err := l.listErrs[namespace]; err != nil {
		return nil, err
	}
	return l.metas[namespace], nil
}

func stats(counts map[string]int) vectorindex.Stats {
	s := vectorindex.Stats{Namespaces: make(map[string]vectorindex.NamespaceStats)}
	for ns, n := range counts {
		s.Namespaces[ns] = vectorindex.NamespaceStats{VectorCount: n}
		s.TotalVectorCount += n
	}
	return s
}

func TestDocuments_ListerPath(t *testing.T) {
	idx := &listingIndex{
		mockIndex: mockIndex{stats: stats(map[string]int{"": 2, "research": 1})},
		metas: map[string][]map[string]any{
			"": {
				{"document": "zebra handbook", "page_num": 1},
				{"document": "aardvark guide", "page_num": 1},
			},
			"research": {
				{"page_num": 1}, // no document key
			},
		},
	}

	docs := New(idx, log.NewNop()).Documents(context.Background())

	want := []string{"Unknown Title", "aardvark guide", "zebra handbook"}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("Documents() = %v, want %v", docs, want)
	}
	if len(idx.queriedNS) != 0 {
		t.Errorf("lister available but Query was called for %v", idx.queriedNS)
	}
}

func TestDocuments_QueryFallback(t *testing.T) {
	idx := &mockIndex{
		stats: stats(map[string]int{"research": 3, "empty": 0}),
		matches: map[string][]vectorindex.Match{
			"research": {
				{ID: "a_1", Metadata: map[string]any{"document": "a"}},
				{ID: "a_2", Metadata: map[string]any{"document": "a"}},
				{ID: "b_1", Metadata: map[string]any{"document": "b"}},
			},
		},
	}

	docs := New(idx, log.NewNop()).Documents(context.Background())

	if !reflect.DeepEqual(docs, []string{"a", "b"}) {
		t.Errorf("Documents() = %v", docs)
	}
	if !reflect.DeepEqual(idx.queriedNS, []string{"research"}) {
		t.Errorf("queried namespaces = %v, empty namespaces must be skipped", idx.queriedNS)
	}
	if !reflect.DeepEqual(idx.queriedTop, []int{3}) {
		t.Errorf("queried top-k = %v, want the namespace vector count", idx.queriedTop)
	}
}

func TestDocuments_FailSoft(t *testing.T) {
	t.Run("stats failure yields empty list", func(t *testing.T) {
		idx := &mockIndex{statsErr: errors.New("index down")}
		docs := New(idx, log.NewNop()).Documents(context.Background())
		if len(docs) != 0 {
			t.Errorf("Documents() = %v, want empty", docs)
		}
	})

	t.Run("list failure yields empty list", func(t *testing.T) {
		idx := &listingIndex{
			mockIndex: mockIndex{stats: stats(map[string]int{"research": 1})},
			listErrs:  map[string]error{"research": errors.New("scan failed")},
		}
		docs := New(idx, log.NewNop()).Documents(context.Background())
		if len(docs) != 0 {
			t.Errorf("Documents() = %v, want empty", docs)
		}
	})

	t.Run("failing namespace keeps the others", func(t *testing.T) {
		idx := &listingIndex{
			mockIndex: mockIndex{stats: stats(map[string]int{"ok": 1, "broken": 1})},
			metas: map[string][]map[string]any{
				"ok": {{"document": "survivor"}},
			},
			listErrs: map[string]error{"broken": errors.New("scan failed")},
		}
		docs := New(idx, log.NewNop()).Documents(context.Background())
		if !reflect.DeepEqual(docs, []string{"survivor"}) {
			t.Errorf("Documents() = %v, want the surviving namespace's documents", docs)
		}
	})

	t.Run("query failure yields empty list", func(t *testing.T) {
		idx := &mockIndex{
			stats:    stats(map[string]int{"research": 2}),
			queryErr: errors.New("search failed"),
		}
		docs := New(idx, log.NewNop()).Documents(context.Background())
		if len(docs) != 0 {
			t.Errorf("Documents() = %v, want empty", docs)
		}
	})
}
