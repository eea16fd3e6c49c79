package cds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/event"
	"faultline/internal/forest"
)

func ev(id, parent event.ID, kind event.Kind, payload string, stack ...string) *event.Event {
	return &event.Event{ID: id, Parent: parent, Kind: kind, Payload: payload, CallStack: stack}
}

func buildForest(t *testing.T, events []*event.Event) *forest.Forest {
	t.Helper()
	f, err := forest.Build(events, forest.Options{})
	require.NoError(t, err)
	return f
}

func TestBuildAndRender_SimpleCall(t *testing.T) {
	// double 3 = 6
	f := buildForest(t, []*event.Event{
		ev(1, event.RootParent, event.KindCallEntry, "double", "double"),
		ev(2, 1, event.KindFragment, "3"),
		ev(3, 1, event.KindCallResult, ""),
		ev(4, 3, event.KindFragment, "6"),
	})

	stmts, warnings := Synthesize(f)
	require.Empty(t, warnings)
	require.Len(t, stmts, 1)
	assert.Equal(t, "double 3 = 6", stmts[0].Equation)
	assert.Equal(t, "double", stmts[0].Label)
	assert.Equal(t, event.ID(1), stmts[0].TreeRoot)
}

func TestBuildAndRender_ConstructorValues(t *testing.T) {
	// insert 3 (Cons 1 _) = (Cons 1 (Cons 3 _))
	f := buildForest(t, []*event.Event{
		ev(1, event.RootParent, event.KindCallEntry, "insert", "insert"),
		ev(2, 1, event.KindFragment, "3"),
		ev(3, 1, event.KindConsApp, "Cons"),
		ev(4, 3, event.KindFragment, "1"),
		ev(5, 1, event.KindCallResult, ""),
		ev(6, 5, event.KindConsApp, "Cons"),
		ev(7, 6, event.KindFragment, "1"),
		ev(8, 6, event.KindConsApp, "Cons"),
		ev(9, 8, event.KindFragment, "3"),
	})

	stmts, warnings := Synthesize(f)
	require.Empty(t, warnings)
	require.Len(t, stmts, 1)
	assert.Equal(t, "insert 3 (Cons 1) = (Cons 1 (Cons 3))", stmts[0].Equation)
}

func TestSimplify_CollapsesUnforcedCalls(t *testing.T) {
	// g was entered under f but never forced; it must collapse to a hole.
	f := buildForest(t, []*event.Event{
		ev(1, event.RootParent, event.KindCallEntry, "f", "f"),
		ev(2, 1, event.KindCallEntry, "g", "f", "g"),
		ev(3, 1, event.KindCallResult, ""),
		ev(4, 3, event.KindFragment, "0"),
	})

	stmts, warnings := Synthesize(f)
	require.Empty(t, warnings)
	require.Len(t, stmts, 1)
	assert.Equal(t, "f _ = 0", stmts[0].Equation)
}

func TestSimplify_DedupsSiblingFragments(t *testing.T) {
	f := buildForest(t, []*event.Event{
		ev(1, event.RootParent, event.KindCallEntry, "h", "h"),
		ev(2, 1, event.KindFragment, "1"),
		ev(3, 1, event.KindCallResult, ""),
		// The same result position observed twice.
		ev(4, 3, event.KindFragment, "True"),
		ev(5, 3, event.KindFragment, "True"),
	})

	stmts, warnings := Synthesize(f)
	require.Empty(t, warnings)
	require.Len(t, stmts, 1)
	assert.Equal(t, "h 1 = True", stmts[0].Equation)
}

func TestSimplify_Idempotent(t *testing.T) {
	structures := []*Node{
		{Kind: NodeCall, Label: "f",
			Args: []*Node{
				{Kind: NodeCall, Label: "g"}, // unforced
				{Kind: NodeCons, Label: "Cons", Fields: []*Node{
					{Kind: NodeFrag, Label: "1"},
					{Kind: NodeFrag, Label: "1"},
					{Kind: NodeFrag, Label: "2"},
				}},
			},
			Results: []*Node{
				{Kind: NodeFrag, Label: "0"},
				{Kind: NodeFrag, Label: "0"},
			},
		},
		{Kind: NodeCall, Label: "lonely"},
		{Kind: NodeFrag, Label: "42"},
	}

	for _, n := range structures {
		once := Simplify(n)
		twice := Simplify(once)
		assert.Equal(t, once, twice)
		assert.Equal(t, once.Count(), twice.Count())
	}
}

func TestSynthesize_DropsUnrenderable(t *testing.T) {
	f := buildForest(t, []*event.Event{
		// A call that observed nothing but an unforced callee.
		ev(1, event.RootParent, event.KindCallEntry, "noop", "noop"),
		ev(2, 1, event.KindCallEntry, "lazy", "noop", "lazy"),
		// A healthy statement alongside it.
		ev(10, event.RootParent, event.KindCallEntry, "inc", "inc"),
		ev(11, 10, event.KindFragment, "1"),
		ev(12, 10, event.KindCallResult, ""),
		ev(13, 12, event.KindFragment, "2"),
	})

	stmts, warnings := Synthesize(f)
	require.Len(t, stmts, 1)
	assert.Equal(t, "inc 1 = 2", stmts[0].Equation)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "event 1")
}
