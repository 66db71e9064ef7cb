package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/doctree"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser builds an outline from the ATX and setext headings of a
// Markdown file using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Open(r io.ReaderAt, size int64, filename string) (outline.Source, error) {
	src, err := readAll(r, size)
	if err != nil {
		return nil, err
	}
	return doctree.Document(p.parse(src)), nil
}

func (p *MarkdownParser) parse(src []byte) *doctree.DocTree {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	h := newHeadingTree()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if node, ok := n.(*ast.Heading); ok {
			h.add(inlineText(node, src), node.Level)
		}
	}
	return h.tree("")
}

// inlineText gets the text content of a goldmark inline container.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			// Recurse for nested inlines (emphasis, links, code spans).
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
