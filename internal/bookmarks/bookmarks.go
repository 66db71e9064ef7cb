// Package bookmarks turns a document outline into a flat list of bookmark
// records, one per outline item in document order.
package bookmarks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pdfmarks/internal/outline"
)

var (
	// ErrUnreadable is returned when the document or its outline cannot be
	// read. Extraction stops and no partial result is returned.
	ErrUnreadable = errors.New("bookmarks: document unreadable")
)

// Record is one bookmark.
type Record struct {
	Title      string `json:"title"`
	Level      int    `json:"level"`                 // 1 for top-level items
	PageNumber int    `json:"page_number,omitempty"` // 1-based (0 if N/A)
}

// HasPage reports whether the target page of r is known.
func (r Record) HasPage() bool {
	return r.PageNumber > 0
}

// Result is the outcome of a successful extraction.
type Result struct {
	Title       string       `json:"title,omitempty"` // document title, if it has one
	Records     []Record     `json:"bookmarks"`
	Diagnostics []Diagnostic `json:"warnings"`
}

// Options control extraction.
type Options struct {
	MaxDepth int // see outline.Walker
	MaxNodes int // see outline.Walker

	// Logger, if set, receives every diagnostic at warn level.
	Logger *slog.Logger
}

// Extract reads the outline of doc. It returns a nil Result and a nil
// error if the document has no outline, and a Result without records if
// the outline exists but is empty.
func Extract(doc outline.Document, opts Options) (res *Result, err error) {
	// The PDF reader reports malformed objects by panicking.
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	root, err := doc.OutlineRoot()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if root == nil {
		return nil, nil
	}

	res = &Result{
		Records:     []Record{},
		Diagnostics: []Diagnostic{},
	}
	if t, ok := doc.(outline.Titled); ok {
		res.Title = t.Title()
	}
	report := func(d Diagnostic) {
		res.Diagnostics = append(res.Diagnostics, d)
		if opts.Logger != nil {
			opts.Logger.Warn("bookmark warning",
				"kind", d.Kind,
				"title", d.Title,
				"level", d.Level,
				"detail", d.Detail,
			)
		}
	}

	w := outline.Walker{
		MaxDepth: opts.MaxDepth,
		MaxNodes: opts.MaxNodes,
		OnTruncate: func(n outline.Node, level int) {
			report(Diagnostic{
				Kind:   KindDepthLimit,
				Title:  n.Title(),
				Level:  level,
				Detail: fmt.Sprintf("children below level %d skipped", level),
			})
		},
	}
	entries, err := w.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	for _, e := range entries {
		rec, diag := Resolve(e.Node, e.Level)
		res.Records = append(res.Records, rec)
		if diag != nil {
			report(*diag)
		}
	}
	return res, nil
}

// ExtractSource opens a document with open, extracts its bookmarks and
// closes it again on every path. A close error is only reported if
// extraction itself succeeded.
func ExtractSource(open func() (outline.Source, error), opts Options) (res *Result, err error) {
	src, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer func() {
		cerr := src.Close()
		if cerr != nil && err == nil {
			res = nil
			err = fmt.Errorf("close document: %w", cerr)
		}
	}()
	return Extract(src, opts)
}
