package bookmarks_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/doctree"
	"github.com/dgallion1/pdfmarks/internal/dump"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"github.com/google/go-cmp/cmp"
)

// page is a destination on the 1-based page n.
func page(n int) outline.Destination {
	return outline.PageDestination{Index: n - 1}
}

// chapterTree is one top-level item reached through a go-to action with a
// single child that has a direct destination.
func chapterTree(sectionDest outline.Destination) *doctree.DocTree {
	tree := &doctree.DocTree{}
	ch := tree.Add("Chapter 1", nil)
	ch.Action = outline.GoToAction{Dest: outline.PageDestination{Index: 0}}
	sec := ch.Add("Section 1.1", nil)
	sec.Dest = sectionDest
	return tree
}

func extract(t *testing.T, tree *doctree.DocTree) *bookmarks.Result {
	t.Helper()
	res, err := bookmarks.Extract(doctree.Document(tree), bookmarks.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return res
}

func TestExtract_ChapterScenario(t *testing.T) {
	res := extract(t, chapterTree(outline.PageDestination{Index: 4}))

	got := dump.Format(res.Records, dump.Options{Newline: "\n"})
	want := `BookmarkBegin
BookmarkTitle: Chapter 1
BookmarkLevel: 1
BookmarkPageNumber: 1
BookmarkBegin
BookmarkTitle: Section 1.1
BookmarkLevel: 2
BookmarkPageNumber: 5
`
	if got != want {
		t.Errorf("unexpected dump:\n%s\nwant:\n%s", got, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %v", res.Diagnostics)
	}
}

func TestExtract_UnresolvedScenario(t *testing.T) {
	res := extract(t, chapterTree(outline.PageDestination{Index: outline.Unresolved, Target: "[99 0 R /Fit]"}))

	got := dump.Format(res.Records, dump.Options{Newline: "\n"})
	want := `BookmarkBegin
BookmarkTitle: Chapter 1
BookmarkLevel: 1
BookmarkPageNumber: 1
BookmarkBegin
BookmarkTitle: Section 1.1
BookmarkLevel: 2
`
	if got != want {
		t.Errorf("unexpected dump:\n%s\nwant:\n%s", got, want)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Kind != bookmarks.KindUnresolvedPage || d.Title != "Section 1.1" || d.Level != 2 {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if !strings.Contains(d.Detail, "[99 0 R /Fit]") {
		t.Errorf("diagnostic does not name the destination: %q", d.Detail)
	}
}

func TestExtract_NoOutlineVersusEmptyOutline(t *testing.T) {
	res, err := bookmarks.Extract(doctree.Document(nil), bookmarks.Options{})
	if err != nil || res != nil {
		t.Fatalf("no outline: expected nil result and nil error, got %v, %v", res, err)
	}

	res = extract(t, &doctree.DocTree{})
	if res == nil {
		t.Fatal("empty outline: expected non-nil result")
	}
	if len(res.Records) != 0 {
		t.Errorf("empty outline: expected no records, got %d", len(res.Records))
	}
	if got := dump.Format(res.Records, dump.Options{}); got != "" {
		t.Errorf("empty outline: expected empty dump, got %q", got)
	}
}

func TestExtract_DocumentTitle(t *testing.T) {
	tree := chapterTree(page(5))
	tree.Title = "Manual"
	if res := extract(t, tree); res.Title != "Manual" {
		t.Errorf("expected title %q, got %q", "Manual", res.Title)
	}
}

func TestExtract_ActionTakesPrecedence(t *testing.T) {
	tree := &doctree.DocTree{}
	n := tree.Add("Both", nil)
	n.Action = outline.GoToAction{Dest: outline.PageDestination{Index: 6}}
	n.Dest = outline.PageDestination{Index: 1}

	res := extract(t, tree)
	if got := res.Records[0].PageNumber; got != 7 {
		t.Errorf("expected page 7 from action, got %d", got)
	}
}

func TestExtract_FallbackToDirectDestination(t *testing.T) {
	tree := &doctree.DocTree{}
	uri := tree.Add("URI action", nil)
	uri.Action = outline.OtherAction{Type: "URI"}
	uri.Dest = outline.PageDestination{Index: 2}

	empty := tree.Add("GoTo without target", nil)
	empty.Action = outline.GoToAction{}
	empty.Dest = outline.PageDestination{Index: 3}

	tree.Add("URI only", nil).Action = outline.OtherAction{Type: "URI"}

	res := extract(t, tree)
	want := []bookmarks.Record{
		{Title: "URI action", Level: 1, PageNumber: 3},
		{Title: "GoTo without target", Level: 1, PageNumber: 4},
		{Title: "URI only", Level: 1},
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("missing destinations must not produce diagnostics, got %v", res.Diagnostics)
	}
}

func TestExtract_ViewStateDestinations(t *testing.T) {
	tree := &doctree.DocTree{}
	tree.Add("fit", nil).Dest = outline.FitDestination{Target: "[3 0 R /Fit]"}
	xyz := tree.Add("xyz", nil)
	xyz.Action = outline.GoToAction{Dest: outline.XYZDestination{Target: "[3 0 R /XYZ 0 800 0]"}}
	tree.Add("after", page(2))

	res := extract(t, tree)
	want := []bookmarks.Record{
		{Title: "fit", Level: 1},
		{Title: "xyz", Level: 1},
		{Title: "after", Level: 1, PageNumber: 2},
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if len(res.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", res.Diagnostics)
	}
	for _, d := range res.Diagnostics {
		if d.Kind != bookmarks.KindUnsupportedDestination {
			t.Errorf("expected %s, got %s", bookmarks.KindUnsupportedDestination, d.Kind)
		}
	}
}

func TestExtract_UnresolvedDoesNotStopSiblingsOrChildren(t *testing.T) {
	tree := &doctree.DocTree{}
	bad := tree.Add("bad", nil)
	bad.Dest = outline.PageDestination{Index: outline.Unresolved}
	bad.Add("child", page(2))
	tree.Add("sibling", page(3))

	res := extract(t, tree)
	want := []bookmarks.Record{
		{Title: "bad", Level: 1},
		{Title: "child", Level: 2, PageNumber: 2},
		{Title: "sibling", Level: 1, PageNumber: 3},
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestExtract_CountAndLevels(t *testing.T) {
	tree := &doctree.DocTree{}
	nodes := 0
	var build func(parent *doctree.DocNode, depth int)
	build = func(parent *doctree.DocNode, depth int) {
		if depth == 4 {
			return
		}
		for i := range 3 {
			child := parent.Add("n", page(i+1))
			nodes++
			build(child, depth+1)
		}
	}
	for range 2 {
		top := tree.Add("top", page(1))
		nodes++
		build(top, 1)
	}

	res := extract(t, tree)
	out := dump.Format(res.Records, dump.Options{Newline: "\n"})
	if got := strings.Count(out, "BookmarkBegin\n"); got != nodes {
		t.Errorf("expected %d blocks, got %d", nodes, got)
	}

	// A level may only grow by one from one record to the next.
	prev := 0
	for i, r := range res.Records {
		if r.Level < 1 || r.Level > prev+1 {
			t.Fatalf("record %d: level %d after level %d", i, r.Level, prev)
		}
		prev = r.Level
	}
}

func TestExtract_Idempotent(t *testing.T) {
	tree := chapterTree(outline.PageDestination{Index: outline.Unresolved})
	first := dump.Format(extract(t, tree).Records, dump.Options{})
	second := dump.Format(extract(t, tree).Records, dump.Options{})
	if first != second {
		t.Errorf("repeated extraction differs:\n%q\n%q", first, second)
	}
}

func TestExtract_DepthLimitDiagnostic(t *testing.T) {
	tree := &doctree.DocTree{}
	tree.Add("a", page(1)).Add("b", page(2)).Add("c", page(3))

	res, err := bookmarks.Extract(doctree.Document(tree), bookmarks.Options{MaxDepth: 2})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(res.Records))
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != bookmarks.KindDepthLimit {
		t.Errorf("expected one depth_limit diagnostic, got %v", res.Diagnostics)
	}
}

func TestExtract_TooLargeIsFatal(t *testing.T) {
	tree := &doctree.DocTree{}
	for range 10 {
		tree.Add("x", page(1))
	}
	res, err := bookmarks.Extract(doctree.Document(tree), bookmarks.Options{MaxNodes: 3})
	if !errors.Is(err, bookmarks.ErrUnreadable) || !errors.Is(err, outline.ErrTooLarge) {
		t.Fatalf("expected ErrUnreadable wrapping ErrTooLarge, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no partial result, got %v", res)
	}
}

func TestExtract_LogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := bookmarks.Extract(
		doctree.Document(chapterTree(outline.PageDestination{Index: outline.Unresolved})),
		bookmarks.Options{Logger: log},
	)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "kind=unresolved_page") {
		t.Errorf("diagnostic not logged: %s", out)
	}
}

type failingDoc struct{ err error }

func (d failingDoc) OutlineRoot() (outline.Container, error) { return nil, d.err }

type panickingDoc struct{}

func (panickingDoc) OutlineRoot() (outline.Container, error) { panic("malformed PDF: missing xref") }

func TestExtract_CollaboratorFailure(t *testing.T) {
	cause := errors.New("truncated file")
	_, err := bookmarks.Extract(failingDoc{cause}, bookmarks.Options{})
	if !errors.Is(err, bookmarks.ErrUnreadable) || !errors.Is(err, cause) {
		t.Errorf("expected ErrUnreadable wrapping cause, got %v", err)
	}

	res, err := bookmarks.Extract(panickingDoc{}, bookmarks.Options{})
	if !errors.Is(err, bookmarks.ErrUnreadable) {
		t.Errorf("expected ErrUnreadable from panic, got %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %v", res)
	}
}

type countingSource struct {
	outline.Document
	closed   int
	closeErr error
}

func (s *countingSource) Close() error {
	s.closed++
	return s.closeErr
}

func TestExtractSource_ClosesOnEveryPath(t *testing.T) {
	tests := []struct {
		name    string
		doc     outline.Document
		wantErr bool
		wantNil bool
	}{
		{"outline", doctree.Document(chapterTree(nil)), false, false},
		{"no outline", doctree.Document(nil), false, true},
		{"failure", failingDoc{errors.New("boom")}, true, true},
		{"panic", panickingDoc{}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{Document: tt.doc}
			res, err := bookmarks.ExtractSource(func() (outline.Source, error) { return src, nil }, bookmarks.Options{})
			if (err != nil) != tt.wantErr {
				t.Errorf("unexpected error state: %v", err)
			}
			if (res == nil) != tt.wantNil {
				t.Errorf("unexpected result: %v", res)
			}
			if src.closed != 1 {
				t.Errorf("expected exactly one Close, got %d", src.closed)
			}
		})
	}
}

func TestExtractSource_OpenAndCloseErrors(t *testing.T) {
	_, err := bookmarks.ExtractSource(func() (outline.Source, error) {
		return nil, errors.New("no such file")
	}, bookmarks.Options{})
	if !errors.Is(err, bookmarks.ErrUnreadable) {
		t.Errorf("open failure: expected ErrUnreadable, got %v", err)
	}

	closeErr := errors.New("close failed")
	src := &countingSource{Document: doctree.Document(chapterTree(nil)), closeErr: closeErr}
	res, err := bookmarks.ExtractSource(func() (outline.Source, error) { return src, nil }, bookmarks.Options{})
	if !errors.Is(err, closeErr) || res != nil {
		t.Errorf("close failure: expected close error and nil result, got %v, %v", res, err)
	}
}

func TestResolve(t *testing.T) {
	tree := &doctree.DocTree{}
	tree.Add("plain", page(12))
	root, _ := doctree.Document(tree).OutlineRoot()

	rec, diag := bookmarks.Resolve(root.FirstChild(), 4)
	if diag != nil {
		t.Errorf("unexpected diagnostic %v", diag)
	}
	want := bookmarks.Record{Title: "plain", Level: 4, PageNumber: 12}
	if rec != want {
		t.Errorf("got %+v, want %+v", rec, want)
	}
	if !rec.HasPage() {
		t.Error("HasPage() = false for page 12")
	}
}
