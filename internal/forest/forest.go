package forest

import (
	"errors"
	"fmt"
	"sort"

	"faultline/internal/event"
)

// ErrBrokenTrace is returned when the event stream references a parent that
// never arrived. A graph derived from such a trace would be unsound, so the
// whole rebuild fails rather than recovering silently.
var ErrBrokenTrace = errors.New("broken trace")

// Tree is one reconstructed evaluation tree. Root is always a top-level
// event; children are ordered by event id.
type Tree struct {
	Root     *event.Event
	children map[event.ID][]*event.Event
	minID    event.ID
}

// Children returns the direct children of the given event, in id order.
func (t *Tree) Children(id event.ID) []*event.Event {
	return t.children[id]
}

// RootEvent returns the top-level event the tree hangs from.
func (t *Tree) RootEvent() *event.Event {
	return t.Root
}

// MinID returns the smallest event id contained in the tree. Trees are
// ordered by this value, which makes downstream iteration deterministic.
func (t *Tree) MinID() event.ID {
	return t.minID
}

// Size returns the number of events in the tree.
func (t *Tree) Size() int {
	n := 0
	t.Walk(func(*event.Event) { n++ })
	return n
}

// Walk visits every event in the tree, parents before children,
// siblings in id order.
func (t *Tree) Walk(visit func(*event.Event)) {
	var rec func(e *event.Event)
	rec = func(e *event.Event) {
		visit(e)
		for _, c := range t.children[e.ID] {
			rec(c)
		}
	}
	rec(t.Root)
}

// Forest is the set of trees rebuilt from one complete trace.
type Forest struct {
	Trees []*Tree

	// Diagnostics describes events dropped in orphan-tolerant mode.
	// Empty after a strict build.
	Diagnostics []string
}

// Options controls how tolerant the rebuild is.
type Options struct {
	// AllowOrphans drops sub-trees whose parent chain is broken (an
	// interrupted capture) instead of failing. Each dropped sub-tree is
	// reported in Forest.Diagnostics; orphans are never grafted onto
	// another tree.
	AllowOrphans bool
}

// Build reconstructs the forest from an unordered event sequence. Every
// event ends up in exactly one tree; a reference to an absent parent is a
// fatal ErrBrokenTrace unless opts.AllowOrphans is set.
func Build(events []*event.Event, opts Options) (*Forest, error) {
	index := make(map[event.ID]*event.Event, len(events))
	for _, e := range events {
		if e.ID <= 0 {
			return nil, fmt.Errorf("%w: invalid event id %d", ErrBrokenTrace, e.ID)
		}
		if _, dup := index[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate event id %d", ErrBrokenTrace, e.ID)
		}
		index[e.ID] = e
	}

	children := make(map[event.ID][]*event.Event)
	var roots []*event.Event
	var orphans []*event.Event
	for _, e := range events {
		switch {
		case e.IsRoot():
			roots = append(roots, e)
		case e.Parent >= e.ID:
			// Ids grow strictly along the cause chain; a parent at or
			// above the child id means the capture is corrupt, whether
			// or not that parent ever arrived. Orphan tolerance covers
			// lost events, not impossible references.
			return nil, fmt.Errorf("%w: event %d has non-causal parent %d", ErrBrokenTrace, e.ID, e.Parent)
		case index[e.Parent] == nil:
			if !opts.AllowOrphans {
				return nil, fmt.Errorf("%w: event %d references missing parent %d", ErrBrokenTrace, e.ID, e.Parent)
			}
			orphans = append(orphans, e)
		default:
			children[e.Parent] = append(children[e.Parent], e)
		}
	}

	for _, cs := range children {
		sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	}

	f := &Forest{}
	for _, o := range orphans {
		dropped := countSubtree(children, o)
		f.Diagnostics = append(f.Diagnostics,
			fmt.Sprintf("dropped orphan sub-tree at event %d (missing parent %d, %d events)", o.ID, o.Parent, dropped))
	}

	for _, r := range roots {
		t := &Tree{Root: r, children: children, minID: r.ID}
		t.Walk(func(e *event.Event) {
			if e.ID < t.minID {
				t.minID = e.ID
			}
		})
		f.Trees = append(f.Trees, t)
	}
	sort.Slice(f.Trees, func(i, j int) bool { return f.Trees[i].MinID() < f.Trees[j].MinID() })

	return f, nil
}

func countSubtree(children map[event.ID][]*event.Event, root *event.Event) int {
	n := 1
	for _, c := range children[root.ID] {
		n += countSubtree(children, c)
	}
	return n
}
