package research

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/docsage/docsage/internal/log"
)

// Paper is one scholarly search result.
type Paper struct {
	Title   string
	Summary string
	Authors []string
	Link    string
	Content string
}

// atomFeed mirrors the arxiv Atom response, limited to the fields the
// agent uses.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string       `xml:"id"`
	Title   string       `xml:"title"`
	Summary string       `xml:"summary"`
	Authors []atomAuthor `xml:"author"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// ArxivClient searches the arxiv query API.
type ArxivClient struct {
	baseURL    string
	httpClient *http.Client
	scraper    *Scraper
	logger     log.Logger
}

// NewArxivClient creates a client against the given query API base URL.
// The scraper is optional; without it papers carry no scraped Content.
func NewArxivClient(baseURL string, httpClient *http.Client, scraper *Scraper, logger log.Logger) *ArxivClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ArxivClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		scraper:    scraper,
		logger:     logger,
	}
}

// Search returns up to maxResults papers matching the query. Fail-soft:
// any error yields an empty slice and a log entry. Individual papers whose
// page cannot be scraped carry placeholder Content.
func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int) []Paper {
	return c.search(ctx, query, maxResults, true)
}

// SearchSummaries is Search without per-paper scraping; Content is the
// abstract summary. Useful when only metadata is wanted.
func (c *ArxivClient) SearchSummaries(ctx context.Context, query string, maxResults int) []Paper {
	papers := c.search(ctx, query, maxResults, false)
	for i := range papers {
		papers[i].Content = papers[i].Summary
	}
	return papers
}

func (c *ArxivClient) search(ctx context.Context, query string, maxResults int, scrape bool) []Paper {
	if maxResults < 1 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	requestURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		c.logger.Error("building arxiv request", "error", err)
		return []Paper{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("querying arxiv", "error", err)
		return []Paper{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("arxiv returned non-OK status", "status", resp.StatusCode)
		return []Paper{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("reading arxiv response", "error", err)
		return []Paper{}
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		c.logger.Error("decoding arxiv feed", "error", err)
		return []Paper{}
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		paper := Paper{
			Title:   strings.TrimSpace(entry.Title),
			Summary: strings.TrimSpace(entry.Summary),
			Link:    strings.TrimSpace(entry.ID),
			Content: ContentUnavailable,
		}
		for _, author := range entry.Authors {
			paper.Authors = append(paper.Authors, author.Name)
		}
		if scrape && c.scraper != nil && paper.Link != "" {
			paper.Content = c.scraper.FetchOrPlaceholder(ctx, paper.Link)
		}
		papers = append(papers, paper)
	}

	c.logger.Info("arxiv search complete", "query", query, "results", len(papers))
	return papers
}
