package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/docsage/docsage/internal/log"
)

// WebResult is one web search hit with scraped page content.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
	Content string
}

// searxngResponse mirrors the SearXNG JSON API response.
type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// WebSearcher queries a SearXNG instance and scrapes result pages.
type WebSearcher struct {
	baseURL    string
	httpClient *http.Client
	scraper    *Scraper
	logger     log.Logger
}

// NewWebSearcher creates a searcher against the given SearXNG base URL.
func NewWebSearcher(baseURL string, httpClient *http.Client, scraper *Scraper, logger log.Logger) *WebSearcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WebSearcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		scraper:    scraper,
		logger:     logger,
	}
}

// Search returns up to maxResults web hits for the query, each with its
// page content scraped. Fail-soft: search errors yield an empty slice;
// per-result scrape failures yield placeholder Content.
func (w *WebSearcher) Search(ctx context.Context, query string, maxResults int) []WebResult {
	if maxResults < 1 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	requestURL := fmt.Sprintf("%s/search?%s", w.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		w.logger.Error("building search request", "error", err)
		return []WebResult{}
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("querying search engine", "error", err)
		return []WebResult{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		w.logger.Error("search engine returned non-OK status", "status", resp.StatusCode)
		return []WebResult{}
	}

	var decoded searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		w.logger.Error("decoding search response", "error", err)
		return []WebResult{}
	}

	if len(decoded.Results) > maxResults {
		decoded.Results = decoded.Results[:maxResults]
	}

	results := make([]WebResult, 0, len(decoded.Results))
	for _, hit := range decoded.Results {
		result := WebResult{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: hit.Content,
			Content: ContentUnavailable,
		}
		if w.scraper != nil && result.URL != "" {
			result.Content = w.scraper.FetchOrPlaceholder(ctx, result.URL)
		}
		results = append(results, result)
	}

	w.logger.Info("web search complete", "query", query, "results", len(results))
	return results
}
