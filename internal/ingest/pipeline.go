package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/vectorindex"
)

const (
	// noTextPlaceholder fills in for pages with no extractable text so the
	// page still gets an embedding and index entry.
	noTextPlaceholder = "No Text Available"

	// noTablePlaceholder marks pages without table data in metadata.
	noTablePlaceholder = "No Table Data"

	// defaultAuthor is used when the parser found no author.
	defaultAuthor = "Unknown Author"

	// previewRunes bounds the text_preview metadata field.
	previewRunes = 1000
)

var (
	// ErrLocked indicates another ingestion run holds the run lock.
	ErrLocked = errors.New("another ingestion run is in progress")

	// ErrNoInput indicates the input directory holds no page-record files.
	ErrNoInput = errors.New("no page-record files found")
)

// Store is the slice of the vector index the pipeline writes to.
type Store interface {
	Upsert(ctx context.Context, namespace string, entries []vectorindex.Entry) error
}

// Options configures a Pipeline.
type Options struct {
	// Namespace is the index partition entries are written to.
	Namespace string
	// EmbedderModel is recorded in entry metadata so query-time mismatches
	// can be detected.
	EmbedderModel string
	// LockPath is the run-lock file. Empty disables locking.
	LockPath string
	// EmbedRatePerSec paces embedding calls. Zero means unlimited.
	EmbedRatePerSec float64
}

// Summary reports what a pipeline run did.
type Summary struct {
	RunID     string
	Files     int
	Pages     int
	Documents []string
}

// Pipeline embeds parsed pages and writes them into the index.
// Failures are fail-fast: the first bad page aborts the run. Entry IDs are
// deterministic, so rerunning after a fix overwrites prior partial work.
type Pipeline struct {
	store    Store
	embedder ai.Embedder
	opts     Options
	limiter  *rate.Limiter
	logger   log.Logger
}

// New creates an ingestion pipeline.
func New(store Store, embedder ai.Embedder, opts Options, logger log.Logger) *Pipeline {
	limit := rate.Inf
	if opts.EmbedRatePerSec > 0 {
		limit = rate.Limit(opts.EmbedRatePerSec)
	}
	return &Pipeline{
		store:    store,
		embedder: embedder,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Run ingests every .json page-record file under inputDir.
func (p *Pipeline) Run(ctx context.Context, inputDir string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", summary.RunID)

	if p.opts.LockPath != "" {
		lock := flock.New(p.opts.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquiring run lock: %w", err)
		}
		if !locked {
			return summary, ErrLocked
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("releasing run lock", "error", err)
			}
		}()
	}

	files, err := findPageFiles(inputDir)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		return summary, fmt.Errorf("%w: %s", ErrNoInput, inputDir)
	}

	logger.Info("starting ingestion", "input_dir", inputDir, "files", len(files),
		"namespace", p.opts.Namespace)

	for _, path := range files {
		pages, err := p.ingestFile(ctx, path, logger)
		if err != nil {
			return summary, fmt.Errorf("ingesting %s: %w", filepath.Base(path), err)
		}
		summary.Files++
		summary.Pages += pages
		summary.Documents = append(summary.Documents, DocumentNameFromPath(path))
	}

	logger.Info("ingestion complete", "files", summary.Files, "pages", summary.Pages)
	return summary, nil
}

// ingestFile embeds and upserts every page of one record file. Returns the
// page count.
func (p *Pipeline) ingestFile(ctx context.Context, path string, logger log.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening page records: %w", err)
	}
	defer f.Close()

	pages, err := DecodePages(f)
	if err != nil {
		return 0, err
	}

	docName := DocumentNameFromPath(path)
	entries := make([]vectorindex.Entry, 0, len(pages))

	for i, page := range pages {
		entry, err := p.buildEntry(ctx, docName, i, page)
		if err != nil {
			return 0, fmt.Errorf("page %d: %w", page.Extra.PageNum, err)
		}
		entries = append(entries, entry)
	}

	if err := p.store.Upsert(ctx, p.opts.Namespace, entries); err != nil {
		return 0, err
	}

	logger.Info("ingested document", "document", docName, "pages", len(entries))
	return len(entries), nil
}

// buildEntry embeds one page and assembles its index entry.
func (p *Pipeline) buildEntry(ctx context.Context, docName string, index int, page PageRecord) (vectorindex.Entry, error) {
	text := page.Contents
	if strings.TrimSpace(text) == "" {
		text = noTextPlaceholder
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return vectorindex.Entry{}, fmt.Errorf("waiting on embed rate limit: %w", err)
	}

	resp, err := p.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return vectorindex.Entry{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return vectorindex.Entry{}, fmt.Errorf("embedder returned no embeddings")
	}

	pageNum := page.Extra.PageNum
	if pageNum == 0 {
		pageNum = index + 1
	}

	title := page.Title
	if title == "" {
		title = docName
	}
	author := page.Author
	if author == "" {
		author = defaultAuthor
	}

	table := noTablePlaceholder
	if page.HasTableData() {
		table = string(page.Cells)
	}

	pageHash := page.PageHash
	if pageHash == "" {
		pageHash = ComputePageHash(page.Hash, index)
	}

	metadata := map[string]any{
		"document":        docName,
		"page_num":        pageNum,
		"page_hash":       pageHash,
		"title":           title,
		"author":          author,
		"text_preview":    truncateRunes(text, previewRunes),
		"table":           table,
		"embedding_model": p.opts.EmbedderModel,
	}
	if page.Image != nil {
		metadata["image"] = true
	}

	return vectorindex.Entry{
		ID:       fmt.Sprintf("%s_%d", docName, pageNum),
		Vector:   resp.Embeddings[0].Embedding,
		Metadata: metadata,
	}, nil
}

// findPageFiles lists the .json files directly under dir, sorted by name.
func findPageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("input directory %s does not exist: %w", dir, err)
		}
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
