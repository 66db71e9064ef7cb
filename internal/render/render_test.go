package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/dump"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func sample() *bookmarks.Result {
	return &bookmarks.Result{
		Records: []bookmarks.Record{
			{Title: "Chapter 1", Level: 1, PageNumber: 1},
			{Title: "Section 1.1", Level: 2, PageNumber: 5},
			{Title: "Zoomed", Level: 2},
		},
		Diagnostics: []bookmarks.Diagnostic{
			{Kind: bookmarks.KindUnsupportedDestination, Title: "Zoomed", Level: 2, Detail: "page of XYZ destination not extracted"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"txt", FormatText, false},
		{"json", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{" html ", FormatHTML, false},
		{"xlsx", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("ParseFormat(%q): expected ErrUnknownFormat, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), FormatText, dump.Options{Newline: "\r\n"}); err != nil {
		t.Fatal(err)
	}
	want := "BookmarkBegin\r\nBookmarkTitle: Chapter 1\r\nBookmarkLevel: 1\r\nBookmarkPageNumber: 1\r\n" +
		"BookmarkBegin\r\nBookmarkTitle: Section 1.1\r\nBookmarkLevel: 2\r\nBookmarkPageNumber: 5\r\n" +
		"BookmarkBegin\r\nBookmarkTitle: Zoomed\r\nBookmarkLevel: 2\r\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected text:\n%q\nwant:\n%q", got, want)
	}
}

func TestRender_EmptyOutline(t *testing.T) {
	empty := &bookmarks.Result{Records: []bookmarks.Record{}, Diagnostics: []bookmarks.Diagnostic{}}
	for _, f := range []Format{FormatText, FormatMarkdown} {
		var buf bytes.Buffer
		if err := Render(&buf, empty, f, dump.Options{}); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%s: expected empty output, got %q", f, buf.String())
		}
	}
}

func TestRender_NoOutline(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, FormatText, dump.Options{}); !errors.Is(err, ErrNoOutline) {
		t.Errorf("expected ErrNoOutline, got %v", err)
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), FormatJSON, dump.Options{}); err != nil {
		t.Fatal(err)
	}
	var got bookmarks.Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(*sample(), got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(buf.String(), `"page_number": 0`) {
		t.Errorf("absent page should be omitted:\n%s", buf.String())
	}
}

func TestMarkdown(t *testing.T) {
	records := []bookmarks.Record{
		{Title: "1. Intro", Level: 1, PageNumber: 1},
		{Title: "Uses *stars* and_under", Level: 3, PageNumber: 2},
		{Title: "", Level: 2},
		{Title: "- dash", Level: 1},
	}
	want := `- 1\. Intro (p. 1)
  - Uses \*stars\* and\_under (p. 2)
  - (untitled)
- \- dash
`
	if got := Markdown(records); got != want {
		t.Errorf("unexpected markdown:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_HTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), FormatHTML, dump.Options{}); err != nil {
		t.Fatal(err)
	}
	want := "<ul>\n<li>Chapter 1 (p. 1)\n<ul>\n<li>Section 1.1 (p. 5)</li>\n<li>Zoomed</li>\n</ul>\n</li>\n</ul>\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected html:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_HTMLEscapesMarkup(t *testing.T) {
	var buf bytes.Buffer
	res := &bookmarks.Result{Records: []bookmarks.Record{{Title: "<script>alert(1)</script>", Level: 1}}}
	if err := Render(&buf, res, FormatHTML, dump.Options{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Errorf("markup not escaped: %s", buf.String())
	}
}

func TestRender_XLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), FormatXLSX, dump.Options{}); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(bookmarksSheet)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Level", "Title", "Page"},
		{"1", "Chapter 1", "1"},
		{"2", "Section 1.1", "5"},
		{"2", "Zoomed"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	warnings, err := f.GetRows(warningsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 2 || warnings[1][0] != string(bookmarks.KindUnsupportedDestination) {
		t.Errorf("unexpected warnings sheet: %v", warnings)
	}
}
