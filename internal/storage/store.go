package storage

import (
	"context"

	"faultline/internal/comptree"
	"faultline/internal/event"
)

// SessionInfo is the stored metadata of one debugging session.
type SessionInfo struct {
	ID        string
	TracePath string
	Verdict   string
	CreatedAt string
}

// Store persists traces, graphs and judgement history per session so an
// interrupted run can be inspected or resumed. The core never touches a
// store; only the CLI drives it.
type Store interface {
	// CreateSession registers a new session and returns its id.
	CreateSession(ctx context.Context, tracePath string) (string, error)

	// SaveEvents snapshots the raw trace of a session.
	SaveEvents(ctx context.Context, sessionID string, events []*event.Event) error

	// LoadEvents returns the stored trace of a session.
	LoadEvents(ctx context.Context, sessionID string) ([]*event.Event, error)

	// SaveGraph snapshots the dependency graph including judgements,
	// replacing any previous snapshot of the session.
	SaveGraph(ctx context.Context, sessionID string, g *comptree.Graph) error

	// LoadGraph rebuilds a session's graph, judgements included.
	LoadGraph(ctx context.Context, sessionID string) (*comptree.Graph, error)

	// SaveJudgement updates one vertex's stored judgement.
	SaveJudgement(ctx context.Context, sessionID string, id comptree.VertexID, j comptree.Judgement) error

	// SetVerdict records the session's terminal verdict.
	SetVerdict(ctx context.Context, sessionID string, verdict string) error

	// ListSessions returns all stored sessions, newest first.
	ListSessions(ctx context.Context) ([]SessionInfo, error)

	Close() error
}
