// Package export renders the dependency graph for external tools. All
// renderers work off the graph's read-only traversal; nothing here mutates
// a vertex or performs judgements.
package export

import (
	"fmt"
	"strings"

	"faultline/internal/comptree"
)

// Mermaid renders the graph as a mermaid flowchart, one node per vertex and
// one arrow per dependency arc. Judgement state is encoded as a css class.
func Mermaid(g *comptree.Graph) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\ngraph TD\n")

	for _, v := range g.Vertices() {
		sb.WriteString(fmt.Sprintf("    v%d[%q]:::%s\n", v.ID, nodeLabel(v), judgementClass(v)))
	}
	for _, a := range g.Arcs() {
		sb.WriteString(fmt.Sprintf("    v%d --> v%d\n", a.From, a.To))
	}

	sb.WriteString("    classDef right fill:#9f9\n")
	sb.WriteString("    classDef wrong fill:#f99\n")
	sb.WriteString("    classDef unassessed fill:#eee\n")
	sb.WriteString("```\n")
	return sb.String()
}

func nodeLabel(v *comptree.Vertex) string {
	if v.IsRoot() {
		return "root"
	}
	return v.Stmt.Text()
}

func judgementClass(v *comptree.Vertex) string {
	switch v.Judgement {
	case comptree.Right:
		return "right"
	case comptree.Wrong:
		return "wrong"
	default:
		return "unassessed"
	}
}
