package cds

import (
	"fmt"
	"strings"

	"faultline/internal/event"
)

// Statement is the rendered, user-facing unit of one traced call: its label,
// the call stack that led to it and an equation over the observed arguments
// and result. Statements are immutable once rendered; two statements are
// "the same" exactly when their equations are identical.
type Statement struct {
	Label     string
	CallStack []string
	Equation  string

	// TreeRoot is the id of the event tree the statement came from.
	// It gives downstream builders a stable, capture-ordered identity.
	TreeRoot event.ID
}

// Text returns the rendered statement. Its length is used as the reading
// effort proxy during fault localization.
func (s *Statement) Text() string {
	return s.Equation
}

func (s *Statement) String() string {
	return fmt.Sprintf("%s  [%s]", s.Equation, strings.Join(s.CallStack, " > "))
}

// Render turns a simplified context structure into a Computation Statement.
// The second return is false when the structure cannot be rendered (it
// describes no call, or carries nothing but unforced placeholders); such
// structures contribute no vertex.
func Render(n *Node, stack []string, treeRoot event.ID) (*Statement, bool) {
	if n == nil || n.Kind != NodeCall {
		return nil, false
	}

	informative := false
	for _, a := range n.Args {
		if a.Kind != NodeHole {
			informative = true
		}
	}
	for _, r := range n.Results {
		if r.Kind != NodeHole {
			informative = true
		}
	}
	if !informative {
		return nil, false
	}

	var sb strings.Builder
	sb.WriteString(n.Label)
	for _, a := range n.Args {
		sb.WriteByte(' ')
		sb.WriteString(renderOperand(a))
	}
	sb.WriteString(" = ")
	sb.WriteString(renderResults(n.Results))

	return &Statement{
		Label:     n.Label,
		CallStack: append([]string(nil), stack...),
		Equation:  sb.String(),
		TreeRoot:  treeRoot,
	}, true
}

func renderResults(rs []*Node) string {
	if len(rs) == 0 {
		return "_"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = renderOperand(r)
	}
	return strings.Join(parts, " ")
}

// renderOperand parenthesizes compound values so equations stay unambiguous.
func renderOperand(n *Node) string {
	if n.Kind == NodeCons && len(n.Fields) > 0 {
		return "(" + renderNode(n) + ")"
	}
	return renderNode(n)
}

func renderNode(n *Node) string {
	if n == nil {
		return "_"
	}
	switch n.Kind {
	case NodeHole:
		return "_"
	case NodeFrag:
		return n.Label
	case NodeCons:
		if n.Label == "" && len(n.Fields) == 1 {
			return renderNode(n.Fields[0])
		}
		parts := make([]string, 0, len(n.Fields)+1)
		if n.Label != "" {
			parts = append(parts, n.Label)
		}
		for _, f := range n.Fields {
			parts = append(parts, renderOperand(f))
		}
		return strings.Join(parts, " ")
	case NodeCall:
		// A call appearing in value position renders as an opaque
		// functional value.
		return "<" + n.Label + ">"
	default:
		return "_"
	}
}
