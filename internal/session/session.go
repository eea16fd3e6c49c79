// Package session implements the interactive divide-and-query search that
// localizes a single faulty statement with as few oracle judgements as
// possible. A session owns its graph exclusively: one writer, one pending
// query at a time.
package session

import (
	"errors"
	"fmt"

	"faultline/internal/comptree"
)

var (
	// ErrAlreadyJudged rejects a second judgement on the same vertex;
	// re-judging is an external override, not part of the search.
	ErrAlreadyJudged = errors.New("vertex already judged")
	// ErrUnknownVertex rejects handles outside the graph (or the root,
	// which is judged by construction).
	ErrUnknownVertex = errors.New("unknown vertex")
	// ErrInvalidJudgement rejects anything but Right or Wrong.
	ErrInvalidJudgement = errors.New("judgement must be right or wrong")
	// ErrSessionDone rejects judgements after a terminal verdict; a new
	// run needs a fresh session.
	ErrSessionDone = errors.New("session already reached a terminal verdict")
)

// Verdict is the session's current conclusion.
type Verdict int

const (
	// Unresolved means the search still needs judgements.
	Unresolved Verdict = iota
	// Faulty means exactly one fault vertex was isolated.
	Faulty
	// NoFaultFound means every relevant statement was judged Right.
	NoFaultFound
	// Inconsistent means the oracle contradicted itself; the engine
	// reports this rather than guessing.
	Inconsistent
)

func (v Verdict) String() string {
	switch v {
	case Faulty:
		return "faulty"
	case NoFaultFound:
		return "no fault found"
	case Inconsistent:
		return "inconsistent judgements"
	default:
		return "unresolved"
	}
}

// Options tunes a session.
type Options struct {
	// MaxQueries caps how many queries NextQuery will offer. Zero means
	// no cap. Hitting the cap is a clean stop: the verdict stays
	// Unresolved and the budget can be extended to resume.
	MaxQueries int

	// BatchJudge applies each judgement to every vertex whose statement
	// renders identically. Off by default: judgements never transfer
	// between equal statements implicitly.
	BatchJudge bool
}

// Session drives one fault localization run over one dependency graph.
type Session struct {
	graph *comptree.Graph
	opts  Options

	queries int
	groups  map[comptree.VertexID][]comptree.VertexID

	// Derived state, refreshed after every accepted judgement.
	verdict Verdict
	fault   *comptree.Vertex
	pending *comptree.Vertex
}

// New starts a session over a freshly built graph. The graph must still be
// fully Unassessed; a graph that has already been searched belongs to its
// old session and is rejected.
func New(g *comptree.Graph, opts Options) (*Session, error) {
	if g == nil || g.Len() <= 1 {
		return nil, errors.New("session needs a graph with at least one statement")
	}
	for _, v := range g.Vertices()[1:] {
		if v.Judgement != comptree.Unassessed {
			return nil, fmt.Errorf("vertex %d is already judged; build a fresh graph per session", v.ID)
		}
	}
	s := &Session{graph: g, opts: opts}
	if opts.BatchJudge {
		s.groups = make(map[comptree.VertexID][]comptree.VertexID)
		for _, group := range g.EqualStatementGroups() {
			for _, id := range group {
				s.groups[id] = group
			}
		}
	}
	s.refresh()
	return s, nil
}

// Resume continues a previously persisted run: existing judgements are
// kept and counted against the query budget. The graph must still belong
// to a single writer; resuming does not make it shareable.
func Resume(g *comptree.Graph, opts Options) (*Session, error) {
	if g == nil || g.Len() <= 1 {
		return nil, errors.New("session needs a graph with at least one statement")
	}
	s := &Session{graph: g, opts: opts}
	for _, v := range g.Vertices()[1:] {
		if v.Judgement != comptree.Unassessed {
			s.queries++
		}
	}
	if opts.BatchJudge {
		s.groups = make(map[comptree.VertexID][]comptree.VertexID)
		for _, group := range g.EqualStatementGroups() {
			for _, id := range group {
				s.groups[id] = group
			}
		}
	}
	s.refresh()
	return s, nil
}

// Queries returns how many queries have been answered so far.
func (s *Session) Queries() int {
	return s.queries
}

// NextQuery returns the vertex the oracle should judge next, or nil when
// the session is terminal or the query budget is spent. The same vertex is
// re-offered until a judgement for it is accepted.
func (s *Session) NextQuery() *comptree.Vertex {
	if s.verdict != Unresolved {
		return nil
	}
	if s.opts.MaxQueries > 0 && s.queries >= s.opts.MaxQueries {
		return nil
	}
	return s.pending
}

// ExtendBudget raises the query cap of a budget-stopped session, making it
// resumable without disturbing any recorded judgement.
func (s *Session) ExtendBudget(extra int) {
	if s.opts.MaxQueries > 0 && extra > 0 {
		s.opts.MaxQueries += extra
	}
}

// SubmitJudgement records the oracle's verdict on one vertex. Malformed
// submissions are refused with the vertex state untouched, and the same
// query stays on offer. Judgements are applied atomically: derived state is
// recomputed only after the write succeeds.
func (s *Session) SubmitJudgement(id comptree.VertexID, j comptree.Judgement) error {
	if s.verdict != Unresolved {
		return ErrSessionDone
	}
	if j != comptree.Right && j != comptree.Wrong {
		return ErrInvalidJudgement
	}
	v := s.graph.Vertex(id)
	if v == nil || v.IsRoot() {
		return ErrUnknownVertex
	}
	if v.Judgement != comptree.Unassessed {
		return ErrAlreadyJudged
	}

	v.Judgement = j
	if s.opts.BatchJudge {
		for _, twin := range s.groups[id] {
			tv := s.graph.Vertex(twin)
			if tv.Judgement == comptree.Unassessed {
				tv.Judgement = j
			}
		}
	}
	s.queries++
	s.refresh()
	return nil
}

// CurrentVerdict reports the session's conclusion so far. The vertex is
// non-nil only for Faulty.
func (s *Session) CurrentVerdict() (Verdict, *comptree.Vertex) {
	return s.verdict, s.fault
}
