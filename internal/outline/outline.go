// Package outline describes the read-only view of a document outline that
// bookmark extraction works against, and walks it in document order.
package outline

import "fmt"

// Unresolved is the page index of a destination whose page cannot be found.
const Unresolved = -1

// Document gives access to the outline of an opened document.
type Document interface {
	// OutlineRoot returns the outline root, or nil if the document has
	// no outline at all.
	OutlineRoot() (Container, error)
}

// Source is a Document backed by a resource that must be released.
type Source interface {
	Document
	Close() error
}

// Titled is implemented by documents that carry their own title.
type Titled interface {
	Title() string
}

// Container is the root of an outline tree. It has no title or target.
type Container interface {
	FirstChild() Node
}

// Node is a single outline item. Children are encoded as a linked list:
// FirstChild starts it and NextSibling continues it. Absent references are
// returned as nil.
type Node interface {
	Container
	NextSibling() Node
	Title() string
	Action() Action
	Destination() Destination
}

// Action is what happens when an outline item is activated.
// The set of implementations is closed.
type Action interface {
	isAction()
}

// GoToAction jumps to a destination inside the same document.
type GoToAction struct {
	Dest Destination
}

// OtherAction is any action that is not a go-to action, e.g. URI or Launch.
type OtherAction struct {
	Type string
}

func (GoToAction) isAction()  {}
func (OtherAction) isAction() {}

// Destination is a location inside the document.
// The set of implementations is closed.
type Destination interface {
	fmt.Stringer
	isDestination()
}

// PageDestination is anchored to a page and carries nothing else that
// bookmark extraction needs.
type PageDestination struct {
	// Index is the zero-based page index, or Unresolved.
	Index int

	// Target describes how the destination was written in the document.
	Target string
}

// FitDestination shows a whole page fitted to the window.
type FitDestination struct {
	Target string
}

// XYZDestination shows a page at explicit coordinates and zoom.
type XYZDestination struct {
	Target string
}

func (PageDestination) isDestination() {}
func (FitDestination) isDestination()  {}
func (XYZDestination) isDestination()  {}

func (d PageDestination) String() string {
	if d.Target != "" {
		return "page destination " + d.Target
	}
	if d.Index == Unresolved {
		return "page destination (unresolved)"
	}
	return fmt.Sprintf("page destination (index %d)", d.Index)
}

func (d FitDestination) String() string {
	return describe("Fit destination", d.Target)
}

func (d XYZDestination) String() string {
	return describe("XYZ destination", d.Target)
}

func describe(kind, target string) string {
	if target == "" {
		return kind
	}
	return kind + " " + target
}
