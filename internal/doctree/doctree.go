// Package doctree holds document outlines built in memory, e.g. from the
// heading structure of Markdown, HTML or DOCX files.
package doctree

import "github.com/dgallion1/pdfmarks/internal/outline"

// DocTree is the root of an in-memory outline.
type DocTree struct {
	Title    string     // Document title from its own metadata, if any
	Children []*DocNode // Top-level entries
}

// DocNode is a recursive outline entry.
type DocNode struct {
	Title  string
	Action outline.Action
	Dest   outline.Destination

	Children []*DocNode // Sub-entries
}

// Add appends a top-level entry and returns it. dest may be nil.
func (t *DocTree) Add(title string, dest outline.Destination) *DocNode {
	n := &DocNode{Title: title, Dest: dest}
	t.Children = append(t.Children, n)
	return n
}

// Add appends a child entry and returns it. dest may be nil.
func (n *DocNode) Add(title string, dest outline.Destination) *DocNode {
	c := &DocNode{Title: title, Dest: dest}
	n.Children = append(n.Children, c)
	return c
}

// Document exposes t through the outline interfaces. A nil tree is a
// document without an outline.
func Document(t *DocTree) outline.Source {
	return document{tree: t}
}

type document struct {
	tree *DocTree
}

func (d document) OutlineRoot() (outline.Container, error) {
	if d.tree == nil {
		return nil, nil
	}
	return root{d.tree}, nil
}

// Title implements outline.Titled.
func (d document) Title() string {
	if d.tree == nil {
		return ""
	}
	return d.tree.Title
}

func (document) Close() error { return nil }

type root struct {
	tree *DocTree
}

func (r root) FirstChild() outline.Node {
	return first(r.tree.Children)
}

// item is the node at position i of a sibling list.
type item struct {
	list []*DocNode
	i    int
}

func first(list []*DocNode) outline.Node {
	if len(list) == 0 {
		return nil
	}
	return item{list: list}
}

func (it item) node() *DocNode { return it.list[it.i] }

func (it item) FirstChild() outline.Node {
	return first(it.node().Children)
}

func (it item) NextSibling() outline.Node {
	if it.i+1 >= len(it.list) {
		return nil
	}
	return item{list: it.list, i: it.i + 1}
}

func (it item) Title() string { return it.node().Title }

func (it item) Action() outline.Action { return it.node().Action }

func (it item) Destination() outline.Destination { return it.node().Dest }
