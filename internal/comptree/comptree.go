// Package comptree links computation statements into the dependency graph
// the fault localization engine searches. Vertices live in an arena and are
// addressed by stable integer handles; arcs are plain handle pairs.
package comptree

import (
	"fmt"
	"sort"
	"strings"

	"faultline/internal/cds"
)

// VertexID is a stable handle into the graph's vertex arena.
// The synthetic root is always vertex 0.
type VertexID int

// RootID is the handle of the synthetic root vertex.
const RootID VertexID = 0

// Judgement is the oracle's verdict on one vertex.
type Judgement int

const (
	Unassessed Judgement = iota
	Right
	Wrong
)

func (j Judgement) String() string {
	switch j {
	case Right:
		return "right"
	case Wrong:
		return "wrong"
	default:
		return "unassessed"
	}
}

// Vertex wraps one computation statement plus its judgement state. The
// statement is immutable; only the fault localization engine writes the
// judgement, and only once.
type Vertex struct {
	ID        VertexID
	Stmt      *cds.Statement // nil for the root
	Judgement Judgement
}

// IsRoot reports whether the vertex is the synthetic root.
func (v *Vertex) IsRoot() bool {
	return v.ID == RootID
}

func (v *Vertex) String() string {
	if v.IsRoot() {
		return "root"
	}
	return fmt.Sprintf("vertex %d: %s", v.ID, v.Stmt.Text())
}

// Arc is one edge of the graph, drawn from the root outward along call
// ancestry: the statement at To was reached under the call recorded at
// From, so To's evaluation depended on From.
type Arc struct {
	From VertexID
	To   VertexID
}

// Graph is the dependency graph of one debugging session. It is built once
// from a complete trace and never structurally edited afterwards.
type Graph struct {
	vertices []*Vertex
	children map[VertexID][]VertexID
	parents  map[VertexID][]VertexID
}

// Build constructs the graph from rendered statements, in the order the
// synthesizer produced them. Each statement becomes one Unassessed vertex,
// attached under every statement whose call stack is the longest proper
// prefix of its own; statements with no such ancestor hang directly under
// the synthetic root. Structurally equal statements reached through
// different call paths stay distinct vertices.
func Build(stmts []*cds.Statement) *Graph {
	g := &Graph{
		children: make(map[VertexID][]VertexID),
		parents:  make(map[VertexID][]VertexID),
	}
	root := &Vertex{ID: RootID, Judgement: Right}
	g.vertices = append(g.vertices, root)

	byStack := make(map[string][]VertexID)
	for _, s := range stmts {
		v := &Vertex{ID: VertexID(len(g.vertices)), Stmt: s}
		g.vertices = append(g.vertices, v)
		byStack[stackKey(s.CallStack)] = append(byStack[stackKey(s.CallStack)], v.ID)
	}

	for _, v := range g.vertices[1:] {
		parents := g.nearestAncestors(byStack, v.Stmt.CallStack)
		if len(parents) == 0 {
			parents = []VertexID{RootID}
		}
		for _, p := range parents {
			g.addArc(p, v.ID)
		}
	}
	return g
}

func stackKey(stack []string) string {
	return strings.Join(stack, "\x00")
}

// nearestAncestors finds every vertex whose call stack is the longest
// proper prefix of the given stack that any vertex carries. Arcs always go
// from a shorter stack to a strictly longer one, so the graph is acyclic.
func (g *Graph) nearestAncestors(byStack map[string][]VertexID, stack []string) []VertexID {
	for n := len(stack) - 1; n > 0; n-- {
		if ids, ok := byStack[stackKey(stack[:n])]; ok {
			return ids
		}
	}
	return nil
}

func (g *Graph) addArc(from, to VertexID) {
	g.children[from] = append(g.children[from], to)
	g.parents[to] = append(g.parents[to], from)
}

// Root returns the synthetic root vertex.
func (g *Graph) Root() *Vertex {
	return g.vertices[RootID]
}

// Vertex returns the vertex behind a handle, or nil for an unknown handle.
func (g *Graph) Vertex(id VertexID) *Vertex {
	if id < 0 || int(id) >= len(g.vertices) {
		return nil
	}
	return g.vertices[id]
}

// Vertices returns all vertices, root first, in handle order.
func (g *Graph) Vertices() []*Vertex {
	return g.vertices
}

// Len returns the number of vertices including the root.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Children returns the statements reached directly under the given
// vertex's call.
func (g *Graph) Children(id VertexID) []VertexID {
	return g.children[id]
}

// Parents returns the vertices the given one was reached through; the
// synthetic root appears here for top-level statements.
func (g *Graph) Parents(id VertexID) []VertexID {
	return g.parents[id]
}

// Dependencies returns the statements the given vertex directly depends
// on: the calls it was reached through, with the synthetic root excluded.
// Top-level statements depend on nothing.
func (g *Graph) Dependencies(id VertexID) []VertexID {
	var deps []VertexID
	for _, p := range g.parents[id] {
		if p != RootID {
			deps = append(deps, p)
		}
	}
	return deps
}

// Arcs returns every dependency arc, ordered by (From, To). The traversal
// is read-only; external renderers and stores consume it.
func (g *Graph) Arcs() []Arc {
	var arcs []Arc
	for from, tos := range g.children {
		for _, to := range tos {
			arcs = append(arcs, Arc{From: from, To: to})
		}
	}
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].From != arcs[j].From {
			return arcs[i].From < arcs[j].From
		}
		return arcs[i].To < arcs[j].To
	})
	return arcs
}

// Descendants returns the set of vertices reachable from id following the
// arcs outward, excluding id itself.
func (g *Graph) Descendants(id VertexID) map[VertexID]bool {
	seen := make(map[VertexID]bool)
	var visit func(VertexID)
	visit = func(v VertexID) {
		for _, c := range g.children[v] {
			if !seen[c] {
				seen[c] = true
				visit(c)
			}
		}
	}
	visit(id)
	return seen
}

// Ancestors returns the transitive closure of the given vertex's
// dependencies: every statement it was produced under, with the synthetic
// root excluded.
func (g *Graph) Ancestors(id VertexID) map[VertexID]bool {
	seen := make(map[VertexID]bool)
	var visit func(VertexID)
	visit = func(v VertexID) {
		for _, p := range g.parents[v] {
			if p == RootID || seen[p] {
				continue
			}
			seen[p] = true
			visit(p)
		}
	}
	visit(id)
	return seen
}

// EqualStatementGroups returns the handles of structurally equal statements
// (identical equations), one group per equation that occurs more than once.
// Judgements never transfer between such vertices implicitly; batch judging
// is an explicit session option built on these groups.
func (g *Graph) EqualStatementGroups() [][]VertexID {
	byText := make(map[string][]VertexID)
	var order []string
	for _, v := range g.vertices[1:] {
		key := v.Stmt.Text()
		if len(byText[key]) == 0 {
			order = append(order, key)
		}
		byText[key] = append(byText[key], v.ID)
	}
	var groups [][]VertexID
	for _, key := range order {
		if ids := byText[key]; len(ids) > 1 {
			groups = append(groups, ids)
		}
	}
	return groups
}
