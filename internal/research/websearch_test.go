package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/log"
)

func TestWebSearch(t *testing.T) {
	// Five result pages; page 3 always fails.
	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/page3") {
			http.Error(w, "broken", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `<html><body><p>Text of %s.</p></body></html>`, r.URL.Path)
	}))
	defer pages.Close()

	results := make([]searxngResult, 0, 5)
	for i := 1; i <= 5; i++ {
		results = append(results, searxngResult{
			Title:   fmt.Sprintf("Result %d", i),
			URL:     fmt.Sprintf("%s/page%d", pages.URL, i),
			Content: fmt.Sprintf("Snippet %d", i),
		})
	}

	var gotQuery string
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(searxngResponse{Results: results})
	}))
	defer engine.Close()

	searcher := NewWebSearcher(engine.URL, engine.Client(), testScraper(t), log.NewNop())
	hits := searcher.Search(context.Background(), "vector databases", 5)

	if !strings.Contains(gotQuery, "q=vector+databases") || !strings.Contains(gotQuery, "format=json") {
		t.Errorf("query params = %q", gotQuery)
	}

	if len(hits) != 5 {
		t.Fatalf("got %d hits, want 5", len(hits))
	}
	if hits[0].Title != "Result 1" || hits[0].Snippet != "Snippet 1" {
		t.Errorf("first hit = %+v", hits[0])
	}
	if !strings.Contains(hits[0].Content, "Text of /page1.") {
		t.Errorf("first hit content = %q", hits[0].Content)
	}

	// One broken page must not sink the batch.
	if hits[2].Content != ContentUnavailable {
		t.Errorf("broken page content = %q, want placeholder", hits[2].Content)
	}
	if !strings.Contains(hits[4].Content, "Text of /page5.") {
		t.Errorf("hits after the broken one must still be scraped, got %q", hits[4].Content)
	}
}

func TestWebSearch_TruncatesToMaxResults(t *testing.T) {
	results := make([]searxngResult, 10)
	for i := range results {
		results[i] = searxngResult{Title: fmt.Sprintf("r%d", i)}
	}
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(searxngResponse{Results: results})
	}))
	defer engine.Close()

	searcher := NewWebSearcher(engine.URL, engine.Client(), nil, log.NewNop())
	if hits := searcher.Search(context.Background(), "q", 3); len(hits) != 3 {
		t.Errorf("got %d hits, want 3", len(hits))
	}
}

func TestWebSearch_FailSoft(t *testing.T) {
	t.Run("engine down", func(t *testing.T) {
		searcher := NewWebSearcher("http://127.0.0.1:1", nil, nil, log.NewNop())
		if hits := searcher.Search(context.Background(), "q", 5); len(hits) != 0 {
			t.Errorf("hits = %v, want empty", hits)
		}
	})

	t.Run("bad JSON", func(t *testing.T) {
		engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer engine.Close()

		searcher := NewWebSearcher(engine.URL, engine.Client(), nil, log.NewNop())
		if hits := searcher.Search(context.Background(), "q", 5); len(hits) != 0 {
			t.Errorf("hits = %v, want empty", hits)
		}
	})
}
