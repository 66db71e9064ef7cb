package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/doctree"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"github.com/fumiama/go-docx"
)

// DOCXParser builds an outline from the heading-styled paragraphs of a
// .docx file.
type DOCXParser struct{}

func (p *DOCXParser) Open(r io.ReaderAt, size int64, filename string) (outline.Source, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	h := newHeadingTree()
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		level := docxHeadingLevel(para)
		if level == 0 {
			continue
		}
		if text := docxParagraphText(para); text != "" {
			h.add(text, level)
		}
	}
	return doctree.Document(h.tree("")), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	case "7":
		return 7
	case "8":
		return 8
	case "9":
		return 9
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
