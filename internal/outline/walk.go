package outline

import (
	"errors"
	"fmt"
)

// Default walk limits. The node limit matches what PDF viewers tolerate in
// practice; deeper outlines than DefaultMaxDepth do not occur in real files.
const (
	DefaultMaxDepth = 256
	DefaultMaxNodes = 65536
)

// ErrTooLarge is returned when an outline has more items than the walker
// accepts. A child or sibling loop in the document ends up here as well.
var ErrTooLarge = errors.New("outline too large")

// Entry is a node together with its level. Direct children of the root
// are level 1.
type Entry struct {
	Node  Node
	Level int
}

// Walker visits an outline tree in pre-order.
type Walker struct {
	// MaxDepth is the deepest level that is visited. Zero means
	// DefaultMaxDepth.
	MaxDepth int

	// MaxNodes is the number of nodes visited before the walk fails with
	// ErrTooLarge. Zero means DefaultMaxNodes.
	MaxNodes int

	// OnTruncate, if set, is called for every node at MaxDepth that has
	// children. Those children are not visited.
	OnTruncate func(n Node, level int)
}

// Walk returns all nodes below root, each subtree fully before the next
// sibling. The walk uses an explicit stack, so its depth does not grow the
// goroutine stack.
func (w Walker) Walk(root Container) ([]Entry, error) {
	maxDepth := w.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	maxNodes := w.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	res := []Entry{}
	if root == nil {
		return res, nil
	}

	// seen counts every node handed out by the collaborator, including
	// those still waiting on the stack.
	seen := 0
	children := func(c Container) ([]Node, error) {
		var kids []Node
		for n := c.FirstChild(); n != nil; n = n.NextSibling() {
			seen++
			if seen > maxNodes {
				return nil, fmt.Errorf("%w: more than %d items", ErrTooLarge, maxNodes)
			}
			kids = append(kids, n)
		}
		return kids, nil
	}

	kids, err := children(root)
	if err != nil {
		return nil, err
	}
	stack := make([]Entry, 0, len(kids))
	stack = pushReversed(stack, kids, 1)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res = append(res, top)

		if top.Level >= maxDepth {
			if top.Node.FirstChild() != nil && w.OnTruncate != nil {
				w.OnTruncate(top.Node, top.Level)
			}
			continue
		}

		kids, err := children(top.Node)
		if err != nil {
			return nil, err
		}
		stack = pushReversed(stack, kids, top.Level+1)
	}
	return res, nil
}

// pushReversed pushes nodes so that nodes[0] ends up on top of the stack.
func pushReversed(stack []Entry, nodes []Node, level int) []Entry {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, Entry{Node: nodes[i], Level: level})
	}
	return stack
}
