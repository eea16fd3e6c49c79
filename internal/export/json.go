package export

import (
	"encoding/json"

	"faultline/internal/comptree"
)

// Document is the serializable view of one dependency graph.
type Document struct {
	Vertices []DocumentVertex `json:"vertices"`
	Arcs     []DocumentArc    `json:"arcs"`
}

// DocumentVertex carries one vertex's statement and judgement.
type DocumentVertex struct {
	ID        int      `json:"id"`
	Root      bool     `json:"root,omitempty"`
	Statement string   `json:"statement,omitempty"`
	Label     string   `json:"label,omitempty"`
	CallStack []string `json:"call_stack,omitempty"`
	Judgement string   `json:"judgement"`
}

// DocumentArc is one dependency arc: From depended on To.
type DocumentArc struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Snapshot builds the serializable view of the graph.
func Snapshot(g *comptree.Graph) *Document {
	doc := &Document{}
	for _, v := range g.Vertices() {
		dv := DocumentVertex{
			ID:        int(v.ID),
			Root:      v.IsRoot(),
			Judgement: v.Judgement.String(),
		}
		if v.Stmt != nil {
			dv.Statement = v.Stmt.Text()
			dv.Label = v.Stmt.Label
			dv.CallStack = v.Stmt.CallStack
		}
		doc.Vertices = append(doc.Vertices, dv)
	}
	for _, a := range g.Arcs() {
		doc.Arcs = append(doc.Arcs, DocumentArc{From: int(a.From), To: int(a.To)})
	}
	return doc
}

// JSON renders the graph as an indented JSON document.
func JSON(g *comptree.Graph) ([]byte, error) {
	return json.MarshalIndent(Snapshot(g), "", "  ")
}
