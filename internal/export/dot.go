package export

import (
	"fmt"
	"strings"

	"faultline/internal/comptree"
)

// Dot renders the graph in graphviz dot form, matching the coloring the
// mermaid renderer uses.
func Dot(g *comptree.Graph) string {
	var sb strings.Builder
	sb.WriteString("digraph comptree {\n")
	sb.WriteString("  node [shape=box, style=filled];\n")

	for _, v := range g.Vertices() {
		sb.WriteString(fmt.Sprintf("  v%d [label=%q, fillcolor=%q];\n",
			v.ID, nodeLabel(v), dotColor(v)))
	}
	for _, a := range g.Arcs() {
		sb.WriteString(fmt.Sprintf("  v%d -> v%d;\n", a.From, a.To))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotColor(v *comptree.Vertex) string {
	switch v.Judgement {
	case comptree.Right:
		return "palegreen"
	case comptree.Wrong:
		return "lightcoral"
	default:
		return "lightgrey"
	}
}
