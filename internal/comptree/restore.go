package comptree

import (
	"fmt"

	"faultline/internal/cds"
)

// RestoredVertex is one persisted vertex on its way back into a graph.
type RestoredVertex struct {
	Stmt      *cds.Statement
	Judgement Judgement
}

// Restore rebuilds a graph from a persisted snapshot. Vertices are handed
// back their original handles in slice order, starting at 1; the root is
// recreated. Arcs must reference valid handles and must not touch the root
// from below.
func Restore(vertices []RestoredVertex, arcs []Arc) (*Graph, error) {
	g := &Graph{
		children: make(map[VertexID][]VertexID),
		parents:  make(map[VertexID][]VertexID),
	}
	g.vertices = append(g.vertices, &Vertex{ID: RootID, Judgement: Right})
	for i, rv := range vertices {
		if rv.Stmt == nil {
			return nil, fmt.Errorf("restored vertex %d has no statement", i+1)
		}
		g.vertices = append(g.vertices, &Vertex{
			ID:        VertexID(i + 1),
			Stmt:      rv.Stmt,
			Judgement: rv.Judgement,
		})
	}
	for _, a := range arcs {
		if g.Vertex(a.From) == nil || g.Vertex(a.To) == nil {
			return nil, fmt.Errorf("arc %d->%d references an unknown vertex", a.From, a.To)
		}
		if a.To == RootID {
			return nil, fmt.Errorf("arc %d->%d points at the root", a.From, a.To)
		}
		g.addArc(a.From, a.To)
	}
	return g, nil
}
