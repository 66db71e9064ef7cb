package parser

import (
	"bytes"
	"testing"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/fumiama/go-docx"
	"github.com/google/go-cmp/cmp"
)

// buildDOCX writes a document with one paragraph per entry. An empty
// style leaves the paragraph as body text.
func buildDOCX(t *testing.T, paras [][2]string) []byte {
	t.Helper()
	w := docx.New().WithDefaultTheme()
	for _, p := range paras {
		para := w.AddParagraph()
		if style := p[0]; style != "" {
			para.Properties = &docx.ParagraphProperties{Style: &docx.Style{Val: style}}
		}
		para.AddText(p[1])
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXParser_Headings(t *testing.T) {
	data := buildDOCX(t, [][2]string{
		{"Heading1", "Overview"},
		{"", "Some body text."},
		{"Heading2", "Goals"},
		{"heading 3", "Stretch goals"},
		{"Heading2", "Risks"},
		{"Title", "Not a heading"},
		{"Heading1", "Appendix"},
	})

	res := records(t, string(data), "plan.docx")
	if res == nil {
		t.Fatal("expected an outline")
	}
	want := []bookmarks.Record{
		{Title: "Overview", Level: 1},
		{Title: "Goals", Level: 2},
		{Title: "Stretch goals", Level: 3},
		{Title: "Risks", Level: 2},
		{Title: "Appendix", Level: 1},
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDOCXParser_NoHeadings(t *testing.T) {
	data := buildDOCX(t, [][2]string{{"", "Just text."}})
	if res := records(t, string(data), "notes.docx"); res != nil {
		t.Errorf("expected no outline, got %+v", res)
	}
}

func TestDOCXParser_NotAZip(t *testing.T) {
	if _, err := OpenBytes([]byte("not a zip archive"), "bad.docx", Options{}); err == nil {
		t.Fatal("expected an error for a non-zip file")
	}
}

func TestDOCXHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading 2", 2},
		{"HEADING9", 9},
		{"Heading10", 0},
		{"Heading", 0},
		{"Normal", 0},
	}
	for _, tt := range tests {
		para := &docx.Paragraph{Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: tt.style}}}
		if got := docxHeadingLevel(para); got != tt.want {
			t.Errorf("style %q: expected level %d, got %d", tt.style, tt.want, got)
		}
	}
	if got := docxHeadingLevel(&docx.Paragraph{}); got != 0 {
		t.Errorf("unstyled paragraph: expected 0, got %d", got)
	}
}
