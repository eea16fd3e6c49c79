// Package cds synthesizes context structures: tree-shaped views of one
// traced call's observed inputs and outputs, rebuilt from an event tree.
package cds

import (
	"faultline/internal/event"
)

// NodeKind discriminates the shapes a context-structure node can take.
type NodeKind int

const (
	// NodeCall is a traced call: a label, observed arguments and the
	// fragments its result was forced to.
	NodeCall NodeKind = iota
	// NodeCons is a constructor application with observed fields.
	NodeCons
	// NodeFrag is an atomic rendered value fragment.
	NodeFrag
	// NodeHole stands for a value that was never forced.
	NodeHole
)

// Node is one node of a context structure.
type Node struct {
	Kind  NodeKind
	Label string // call label, constructor name or fragment text

	Args    []*Node // NodeCall: observed arguments, in call order
	Results []*Node // NodeCall: fragments of the forced result
	Fields  []*Node // NodeCons: observed constructor fields
}

// Forced reports whether a call node was ever forced to a value.
func (n *Node) Forced() bool {
	return n.Kind != NodeCall || len(n.Results) > 0
}

// Count returns the number of nodes in the structure. Simplification
// terminates because every rewrite strictly decreases this value.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Args {
		total += c.Count()
	}
	for _, c := range n.Results {
		total += c.Count()
	}
	for _, c := range n.Fields {
		total += c.Count()
	}
	return total
}

// Build folds one event tree bottom-up into a context structure.
// The result is nil for trees that describe no call at all.
func Build(t TreeSource) *Node {
	root := t.RootEvent()
	if root == nil {
		return nil
	}
	return buildNode(t, root)
}

// TreeSource is the slice of the forest API Build needs. *forest.Tree
// satisfies it; tests can supply fixtures directly.
type TreeSource interface {
	RootEvent() *event.Event
	Children(event.ID) []*event.Event
}

func buildNode(t TreeSource, e *event.Event) *Node {
	switch e.Kind {
	case event.KindCallEntry:
		n := &Node{Kind: NodeCall, Label: e.Payload}
		for _, c := range t.Children(e.ID) {
			if c.Kind == event.KindCallResult {
				for _, rc := range t.Children(c.ID) {
					n.Results = append(n.Results, buildNode(t, rc))
				}
				continue
			}
			n.Args = append(n.Args, buildNode(t, c))
		}
		return n
	case event.KindConsApp:
		n := &Node{Kind: NodeCons, Label: e.Payload}
		for _, c := range t.Children(e.ID) {
			n.Fields = append(n.Fields, buildNode(t, c))
		}
		return n
	case event.KindCallResult:
		// A result marker outside a call entry carries no structure of
		// its own; fold its children as an anonymous constructor.
		n := &Node{Kind: NodeCons, Label: ""}
		for _, c := range t.Children(e.ID) {
			n.Fields = append(n.Fields, buildNode(t, c))
		}
		return n
	default:
		return &Node{Kind: NodeFrag, Label: e.Payload}
	}
}
