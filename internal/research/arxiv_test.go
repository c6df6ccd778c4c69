package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/log"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All You Need</title>
    <summary>The dominant sequence transduction models are based on
complex recurrent or convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce a new language representation model called BERT.</summary>
    <author><name>Jacob Devlin</name></author>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	client := NewArxivClient(server.URL, server.Client(), nil, log.NewNop())
	papers := client.SearchSummaries(context.Background(), "attention", 2)

	if gotQuery != "max_results=2&search_query=all%3Aattention&start=0" {
		t.Errorf("query params = %q", gotQuery)
	}

	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}
	first := papers[0]
	if first.Title != "Attention Is All You Need" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Link != "http://arxiv.org/abs/1706.03762v7" {
		t.Errorf("link = %q", first.Link)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors = %v", first.Authors)
	}
	if first.Content != first.Summary {
		t.Errorf("summaries search must use the abstract as content, got %q", first.Content)
	}
}

func TestArxivSearch_ScrapesPaperPages(t *testing.T) {
	paperServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Full paper text here.</p></body></html>`))
	}))
	defer paperServer.Close()

	feed := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>` + paperServer.URL + `</id>
    <title>Scrapable Paper</title>
    <summary>Short abstract.</summary>
    <author><name>A. Author</name></author>
  </entry>
</feed>`
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer apiServer.Close()

	client := NewArxivClient(apiServer.URL, apiServer.Client(), testScraper(t), log.NewNop())
	papers := client.Search(context.Background(), "anything", 1)

	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}
	if !strings.Contains(papers[0].Content, "Full paper text here.") {
		t.Errorf("content = %q, want scraped text", papers[0].Content)
	}
}

func TestArxivSearch_FailSoft(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewArxivClient(server.URL, server.Client(), nil, log.NewNop())
		if papers := client.Search(context.Background(), "q", 1); len(papers) != 0 {
			t.Errorf("papers = %v, want empty", papers)
		}
	})

	t.Run("malformed feed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("this is not XML <<<"))
		}))
		defer server.Close()

		client := NewArxivClient(server.URL, server.Client(), nil, log.NewNop())
		if papers := client.Search(context.Background(), "q", 1); len(papers) != 0 {
			t.Errorf("papers = %v, want empty", papers)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		client := NewArxivClient("http://127.0.0.1:1", nil, nil, log.NewNop())
		if papers := client.Search(context.Background(), "q", 1); len(papers) != 0 {
			t.Errorf("papers = %v, want empty", papers)
		}
	})
}
