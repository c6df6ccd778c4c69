// Package research provides the auxiliary research surface: scholarly
// paper search, web search, and page-content scraping.
//
// All operations are fail-soft per record: a page that cannot be fetched
// or parsed yields placeholder content instead of failing the batch.
package research

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/docsage/docsage/internal/log"
)

// ContentUnavailable fills in for pages that could not be fetched or
// parsed.
const ContentUnavailable = "Content not available"

// ErrEmptyContent indicates a fetched page yielded no extractable text.
var ErrEmptyContent = errors.New("no extractable text content")

// ScraperOptions configures fetch pacing and limits.
type ScraperOptions struct {
	// Parallelism is max concurrent requests per domain.
	Parallelism int
	// Delay between requests to the same domain.
	Delay time.Duration
	// Timeout per request.
	Timeout time.Duration
}

// Scraper fetches a page and extracts its readable text.
type Scraper struct {
	opts   ScraperOptions
	logger log.Logger
}

// NewScraper creates a scraper with the given limits. Zero values get
// conservative defaults.
func NewScraper(opts ScraperOptions, logger log.Logger) *Scraper {
	if opts.Parallelism < 1 {
		opts.Parallelism = 2
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Scraper{opts: opts, logger: logger}
}

// Fetch downloads rawURL and returns its readable text content.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}

	collector := colly.NewCollector(colly.IgnoreRobotsTxt())
	collector.SetRequestTimeout(s.opts.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: s.opts.Parallelism,
		Delay:       s.opts.Delay,
	}); err != nil {
		return "", fmt.Errorf("configuring limit rule: %w", err)
	}

	var body []byte
	var fetchErr error
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", fmt.Errorf("visiting %s: %w", rawURL, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, fetchErr)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("fetching %s: %w", rawURL, ErrEmptyContent)
	}

	return extractText(body, pageURL)
}

// FetchOrPlaceholder is the fail-soft form of Fetch: errors are logged
// and ContentUnavailable returned.
func (s *Scraper) FetchOrPlaceholder(ctx context.Context, rawURL string) string {
	content, err := s.Fetch(ctx, rawURL)
	if err != nil {
		s.logger.Warn("scraping failed", "url", rawURL, "error", err)
		return ContentUnavailable
	}
	return content
}

// extractText pulls readable text from an HTML body. Readability handles
// article-shaped pages; pages it cannot parse fall back to joining
// paragraph tags.
func extractText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return "", ErrEmptyContent
	}
	return strings.Join(parts, "\n"), nil
}
