//go:build cgo

package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-sqlite3"

	"github.com/dgallion1/pdfmarks/internal/store"
)

func newTestCache(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "dumps.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWithRetry_Busy(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})
	if !store.IsBusy(err) {
		t.Fatalf("expected the busy error back, got %v", err)
	}
	if calls != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, calls)
	}
}

func TestExtractor_CachesResults(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)
	ex := NewExtractor(ExtractorConfig{}, cache, nil, discardLogger())

	first, err := ex.Extract(ctx, "guide.md", []byte(guide))
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("expected first extraction to miss the cache")
	}

	// Same content under another name is a hit.
	second, err := ex.Extract(ctx, "copy.md", []byte(guide))
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("expected second extraction to hit the cache")
	}
	if diff := cmp.Diff(first.Result, second.Result); diff != "" {
		t.Errorf("cached result mismatch (-first +second):\n%s", diff)
	}
	if first.ContentHash != second.ContentHash {
		t.Errorf("content hashes differ: %s / %s", first.ContentHash, second.ContentHash)
	}

	snap := ex.Stats().Snapshot()
	if snap.Count != 1 || snap.CacheHits != 1 {
		t.Errorf("unexpected stats: %+v", snap)
	}
}

func TestExtractor_CachesNoOutline(t *testing.T) {
	ctx := context.Background()
	ex := NewExtractor(ExtractorConfig{}, newTestCache(t), nil, discardLogger())

	for i, wantCached := range []bool{false, true} {
		got, err := ex.Extract(ctx, "plain.md", []byte("no headings here\n"))
		if err != nil {
			t.Fatal(err)
		}
		if got.Result != nil {
			t.Fatalf("run %d: expected no outline, got %+v", i, got.Result)
		}
		if got.Cached != wantCached {
			t.Errorf("run %d: cached = %v, want %v", i, got.Cached, wantCached)
		}
	}
}

func TestExtractor_ParserSeparatesCacheEntries(t *testing.T) {
	ctx := context.Background()
	ex := NewExtractor(ExtractorConfig{}, newTestCache(t), nil, discardLogger())
	data := []byte("# Chapter 1\n\n## Section 1.1\n")

	// Read as HTML the bytes carry no headings.
	html, err := ex.Extract(ctx, "book.html", data)
	if err != nil {
		t.Fatal(err)
	}
	if html.Result != nil {
		t.Fatalf("expected no outline from html, got %+v", html.Result)
	}

	md, err := ex.Extract(ctx, "book.md", data)
	if err != nil {
		t.Fatal(err)
	}
	if md.Cached {
		t.Error("expected markdown to miss the html cache entry")
	}
	if md.Result == nil || len(md.Result.Records) != 2 {
		t.Fatalf("expected 2 markdown records, got %+v", md.Result)
	}

	// Extension aliases share an entry.
	alias, err := ex.Extract(ctx, "book.markdown", data)
	if err != nil {
		t.Fatal(err)
	}
	if !alias.Cached {
		t.Error("expected .markdown to hit the .md entry")
	}
}

func TestExtractor_LimitsSeparateCacheEntries(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	full := NewExtractor(ExtractorConfig{}, cache, nil, discardLogger())
	if _, err := full.Extract(ctx, "guide.md", []byte(guide)); err != nil {
		t.Fatal(err)
	}

	shallow := NewExtractor(ExtractorConfig{MaxDepth: 1}, cache, nil, discardLogger())
	got, err := shallow.Extract(ctx, "guide.md", []byte(guide))
	if err != nil {
		t.Fatal(err)
	}
	if got.Cached {
		t.Error("expected different limits to miss the cache")
	}
	if len(got.Result.Records) != 1 {
		t.Errorf("expected 1 record at depth 1, got %d", len(got.Result.Records))
	}
}

func TestOrchestrator_CacheStats(t *testing.T) {
	ctx := context.Background()
	o := NewOrchestrator(testConfig(), newTestCache(t), discardLogger())
	if _, err := o.Extractor().Extract(ctx, "guide.md", []byte(guide)); err != nil {
		t.Fatal(err)
	}
	st, enabled, err := o.CacheStats(ctx)
	if err != nil || !enabled {
		t.Fatalf("expected cache stats, got enabled=%v err=%v", enabled, err)
	}
	if st.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", st.Entries)
	}
}
