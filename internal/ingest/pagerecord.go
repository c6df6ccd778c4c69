// Package ingest loads parsed document page records, embeds their text,
// and writes them into the vector index.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// PageImage is the rendered page image attached to a page record. The
// payload is hex-encoded raw pixel bytes.
type PageImage struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Base64 string `json:"base64"`
}

// PageExtra carries page geometry from the parser.
type PageExtra struct {
	PageNum        int     `json:"page_num"`
	WidthInPoints  float64 `json:"width_in_points"`
	HeightInPoints float64 `json:"height_in_points"`
	DPI            int     `json:"dpi"`
}

// PageRecord is one parsed page as produced by the document parser.
// Cells carry the page's table data; they are kept raw and serialized
// into metadata without interpreting their structure.
type PageRecord struct {
	Document   string          `json:"document"`
	Hash       string          `json:"hash"`
	PageHash   string          `json:"page_hash"`
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	Image      *PageImage      `json:"image,omitempty"`
	Cells      json.RawMessage `json:"cells,omitempty"`
	Contents   string          `json:"contents"`
	ContentsMD string          `json:"contents_md"`
	Extra      PageExtra       `json:"extra"`
}

// HasTableData reports whether the page carries any table cells.
func (p PageRecord) HasTableData() bool {
	switch string(p.Cells) {
	case "", "null", "[]", "{}":
		return false
	}
	return true
}

// DecodePages decodes a page-record file: a JSON array of page objects.
func DecodePages(r io.Reader) ([]PageRecord, error) {
	var pages []PageRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&pages); err != nil {
		return nil, fmt.Errorf("decoding page records: %w", err)
	}
	return pages, nil
}

// DocumentNameFromPath derives the document name from a file path: the
// base name without extension, with underscores replaced by spaces.
// "attention_is_all_you_need.json" becomes "attention is all you need".
func DocumentNameFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(stem, "_", " ")
}

// ComputePageHash derives a stable page identity from the document hash
// and the zero-based page index.
func ComputePageHash(docHash string, index int) string {
	sum := sha256.Sum256([]byte(docHash + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(sum[:])
}
