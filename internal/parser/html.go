package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/doctree"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"golang.org/x/net/html"
)

// HTMLParser builds an outline from the h1-h6 elements of an HTML file.
type HTMLParser struct{}

func (p *HTMLParser) Open(r io.ReaderAt, size int64, filename string) (outline.Source, error) {
	src, err := readAll(r, size)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doctree.Document(p.build(doc)), nil
}

// build collects the headings of doc. The title comes from the <title>
// element only: cached results are shared between uploads with different
// file names.
func (p *HTMLParser) build(doc *html.Node) *doctree.DocTree {
	h := newHeadingTree()

	// The walk is iterative: deeply nested markup comes from untrusted
	// uploads.
	stack := []*html.Node{doc}
	if body := findBody(doc); body != nil {
		stack[0] = body
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				h.add(textContent(n), level)
				continue
			}
			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "template":
				continue
			}
		}

		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return h.tree(findTitle(doc))
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
