package parser

import "github.com/dgallion1/pdfmarks/internal/doctree"

// headingTree nests headings by level: a heading becomes a child of the
// closest preceding heading with a lower level.
type headingTree struct {
	root  *doctree.DocTree
	stack []stackEntry
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newHeadingTree() *headingTree {
	// Root is level 0, all h1+ nest under it.
	return &headingTree{
		root:  &doctree.DocTree{},
		stack: []stackEntry{{level: 0}},
	}
}

func (h *headingTree) add(title string, level int) {
	// Pop stack until we find a parent with lower level.
	for len(h.stack) > 1 && h.stack[len(h.stack)-1].level >= level {
		h.stack = h.stack[:len(h.stack)-1]
	}

	// Headings carry no destination. A nil node is the root.
	var node *doctree.DocNode
	if parent := h.stack[len(h.stack)-1].node; parent != nil {
		node = parent.Add(title, nil)
	} else {
		node = h.root.Add(title, nil)
	}
	h.stack = append(h.stack, stackEntry{node: node, level: level})
}

// tree returns the collected headings, or nil if there were none: a
// document without headings has no outline.
func (h *headingTree) tree(title string) *doctree.DocTree {
	if len(h.root.Children) == 0 {
		return nil
	}
	h.root.Title = title
	return h.root
}
