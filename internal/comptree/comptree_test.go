package comptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/cds"
	"faultline/internal/event"
)

func stmt(label, equation string, treeRoot event.ID, stack ...string) *cds.Statement {
	return &cds.Statement{Label: label, Equation: equation, TreeRoot: treeRoot, CallStack: stack}
}

func TestBuild_ChainByStackPrefix(t *testing.T) {
	g := Build([]*cds.Statement{
		stmt("sort", "sort (4 2) = (2 4)", 1, "sort"),
		stmt("insert", "insert 4 (2) = (2 4)", 5, "sort", "insert"),
		stmt("cmp", "cmp 4 2 = GT", 9, "sort", "insert", "cmp"),
	})

	require.Equal(t, 4, g.Len())

	t.Run("Arcs follow call-stack ancestry", func(t *testing.T) {
		assert.Equal(t, []VertexID{1}, g.Children(RootID))
		assert.Equal(t, []VertexID{2}, g.Children(1))
		assert.Equal(t, []VertexID{3}, g.Children(2))
		assert.Empty(t, g.Children(3))
	})

	t.Run("Dependencies run toward the root, root excluded", func(t *testing.T) {
		assert.Empty(t, g.Dependencies(1))
		assert.Equal(t, []VertexID{1}, g.Dependencies(2))
		assert.Equal(t, []VertexID{2}, g.Dependencies(3))

		assert.Equal(t, map[VertexID]bool{1: true, 2: true}, g.Ancestors(3))
		assert.Empty(t, g.Ancestors(1))
	})

	t.Run("Vertices start unassessed, root is right", func(t *testing.T) {
		assert.Equal(t, Right, g.Root().Judgement)
		for _, v := range g.Vertices()[1:] {
			assert.Equal(t, Unassessed, v.Judgement)
		}
	})
}

func TestBuild_SkipsMissingIntermediateFrames(t *testing.T) {
	// No statement exists for the middle frame; the child attaches to the
	// longest prefix that does have one.
	g := Build([]*cds.Statement{
		stmt("main", "main = 0", 1, "main"),
		stmt("leaf", "leaf 1 = 2", 4, "main", "helper", "leaf"),
	})

	assert.Equal(t, []VertexID{2}, g.Children(1))
	assert.Equal(t, []VertexID{1}, g.Parents(2))
}

func TestBuild_DiamondFromSharedCallees(t *testing.T) {
	// Two calls of f share the same stack; their common callee g is
	// reachable via both, which yields non-tree arcs.
	g := Build([]*cds.Statement{
		stmt("a", "a 1 = 2", 1, "a"),
		stmt("f", "f 1 = 1", 4, "a", "f"),
		stmt("f", "f 2 = 3", 8, "a", "f"),
		stmt("g", "g 5 = 5", 12, "a", "f", "g"),
	})

	assert.ElementsMatch(t, []VertexID{2, 3}, g.Children(1))
	assert.ElementsMatch(t, []VertexID{2, 3}, g.Parents(4))
	assert.Equal(t, []VertexID{4}, g.Children(2))
	assert.Equal(t, []VertexID{4}, g.Children(3))

	t.Run("Shared callee depends on both callers", func(t *testing.T) {
		assert.ElementsMatch(t, []VertexID{2, 3}, g.Dependencies(4))
		assert.Equal(t, map[VertexID]bool{1: true, 2: true, 3: true}, g.Ancestors(4))
	})

	t.Run("Acyclic", func(t *testing.T) {
		for _, v := range g.Vertices() {
			assert.False(t, g.Descendants(v.ID)[v.ID], "vertex %d reaches itself", v.ID)
		}
	})

	t.Run("Weakly connected under the root", func(t *testing.T) {
		reach := g.Descendants(RootID)
		assert.Len(t, reach, g.Len()-1)
	})
}

func TestBuild_OrphanStacksAttachToRoot(t *testing.T) {
	g := Build([]*cds.Statement{
		stmt("x", "x = 1", 1, "x"),
		stmt("y", "y = 2", 3, "lost", "y"),
	})

	assert.ElementsMatch(t, []VertexID{1, 2}, g.Children(RootID))
}

func TestEqualStatementGroups(t *testing.T) {
	g := Build([]*cds.Statement{
		stmt("top", "top = 1", 1, "top"),
		stmt("f", "f 1 = 1", 3, "top", "f"),
		stmt("f", "f 1 = 1", 6, "top", "f"),
		stmt("f", "f 2 = 2", 9, "top", "f"),
	})

	groups := g.EqualStatementGroups()
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []VertexID{2, 3}, groups[0])
}

func TestRestore_RoundTrip(t *testing.T) {
	original := Build([]*cds.Statement{
		stmt("sort", "sort (2 1) = (1 2)", 1, "sort"),
		stmt("insert", "insert 2 (1) = (1 2)", 4, "sort", "insert"),
	})
	original.Vertex(2).Judgement = Right

	var restored []RestoredVertex
	for _, v := range original.Vertices()[1:] {
		restored = append(restored, RestoredVertex{Stmt: v.Stmt, Judgement: v.Judgement})
	}
	g, err := Restore(restored, original.Arcs())
	require.NoError(t, err)

	assert.Equal(t, original.Len(), g.Len())
	assert.Equal(t, original.Arcs(), g.Arcs())
	assert.Equal(t, Right, g.Vertex(2).Judgement)

	t.Run("Rejects dangling arcs", func(t *testing.T) {
		_, err := Restore(restored, []Arc{{From: 1, To: 9}})
		assert.Error(t, err)
	})
}
