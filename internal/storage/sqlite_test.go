package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/cds"
	"faultline/internal/comptree"
	"faultline/internal/event"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testGraph() *comptree.Graph {
	return comptree.Build([]*cds.Statement{
		{Label: "sort", Equation: "sort (2 1) = (1 2)", TreeRoot: event.ID(1), CallStack: []string{"sort"}},
		{Label: "insert", Equation: "insert 2 (1) = (1 2)", TreeRoot: event.ID(4), CallStack: []string{"sort", "insert"}},
		{Label: "cmp", Equation: "cmp 2 1 = GT", TreeRoot: event.ID(8), CallStack: []string{"sort", "insert", "cmp"}},
	})
}

func TestSQLiteStore_EventsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "trace.jsonl")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	events := []*event.Event{
		{ID: 1, Parent: event.RootParent, Kind: event.KindCallEntry, Payload: "sort", CallStack: []string{"sort"}},
		{ID: 2, Parent: 1, Kind: event.KindFragment, Payload: "(2 1)"},
		{ID: 3, Parent: 1, Kind: event.KindCallResult},
	}
	require.NoError(t, store.SaveEvents(ctx, sessionID, events))

	got, err := store.LoadEvents(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, events[0].Payload, got[0].Payload)
	assert.Equal(t, events[0].CallStack, got[0].CallStack)
	assert.Equal(t, event.KindCallResult, got[2].Kind)
}

func TestSQLiteStore_GraphRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "trace.jsonl")
	require.NoError(t, err)

	g := testGraph()
	g.Vertex(1).Judgement = comptree.Wrong
	require.NoError(t, store.SaveGraph(ctx, sessionID, g))

	loaded, err := store.LoadGraph(ctx, sessionID)
	require.NoError(t, err)

	assert.Equal(t, g.Len(), loaded.Len())
	assert.Equal(t, g.Arcs(), loaded.Arcs())
	assert.Equal(t, comptree.Wrong, loaded.Vertex(1).Judgement)
	assert.Equal(t, "insert 2 (1) = (1 2)", loaded.Vertex(2).Stmt.Equation)
	assert.Equal(t, []string{"sort", "insert"}, loaded.Vertex(2).Stmt.CallStack)
	assert.Equal(t, event.ID(8), loaded.Vertex(3).Stmt.TreeRoot)
}

func TestSQLiteStore_SaveGraphReplacesSnapshot(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "trace.jsonl")
	require.NoError(t, err)

	require.NoError(t, store.SaveGraph(ctx, sessionID, testGraph()))

	// Saving a smaller graph must not leave stale rows behind.
	smaller := comptree.Build([]*cds.Statement{
		{Label: "only", Equation: "only = 1", TreeRoot: event.ID(1), CallStack: []string{"only"}},
	})
	require.NoError(t, store.SaveGraph(ctx, sessionID, smaller))

	loaded, err := store.LoadGraph(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "only", loaded.Vertex(1).Stmt.Label)
}

func TestSQLiteStore_SaveJudgement(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "trace.jsonl")
	require.NoError(t, err)
	require.NoError(t, store.SaveGraph(ctx, sessionID, testGraph()))

	require.NoError(t, store.SaveJudgement(ctx, sessionID, 2, comptree.Right))

	loaded, err := store.LoadGraph(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, comptree.Right, loaded.Vertex(2).Judgement)
	assert.Equal(t, comptree.Unassessed, loaded.Vertex(1).Judgement)

	t.Run("Unknown vertex is an error", func(t *testing.T) {
		err := store.SaveJudgement(ctx, sessionID, 99, comptree.Right)
		assert.Error(t, err)
	})
}

func TestSQLiteStore_Sessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "a.jsonl")
	require.NoError(t, err)
	second, err := store.CreateSession(ctx, "b.jsonl")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, store.SetVerdict(ctx, first, "faulty"))

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byID := map[string]SessionInfo{}
	for _, info := range sessions {
		byID[info.ID] = info
	}
	assert.Equal(t, "faulty", byID[first].Verdict)
	assert.Equal(t, "unresolved", byID[second].Verdict)
	assert.Equal(t, "b.jsonl", byID[second].TracePath)
}

func TestSQLiteStore_IsolatesSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a, err := store.CreateSession(ctx, "a.jsonl")
	require.NoError(t, err)
	b, err := store.CreateSession(ctx, "b.jsonl")
	require.NoError(t, err)

	require.NoError(t, store.SaveGraph(ctx, a, testGraph()))

	loaded, err := store.LoadGraph(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len(), "empty session holds only the synthetic root")
}
