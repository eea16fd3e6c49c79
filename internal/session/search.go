package session

import (
	"faultline/internal/comptree"
)

// The search orientation: a statement depends on the statements it was
// called under, because those calls produced its inputs. The fault is the
// Wrong statement whose producers all checked out; a Wrong statement whose
// producers include another Wrong one is explained, not blamed.

// refresh recomputes the derived search state from the full judgement map.
// It runs over the whole graph each round because an earlier judgement
// combined with the newest one can newly qualify or disqualify fault
// candidates.
func (s *Session) refresh() {
	exonerated := s.exoneratedSet()

	var wrongs []comptree.VertexID
	for _, v := range s.graph.Vertices()[1:] {
		if v.Judgement != comptree.Wrong {
			continue
		}
		if exonerated[v.ID] {
			// Wrong inside a region the oracle already vouched for.
			s.conclude(Inconsistent, nil)
			return
		}
		wrongs = append(wrongs, v.ID)
	}

	faulty := s.faultySet(wrongs, exonerated)
	if len(faulty) > 1 {
		// Two independent fault witnesses cannot both be the single
		// fault; the judgements do not describe one failing run.
		s.conclude(Inconsistent, nil)
		return
	}
	for _, w := range wrongs {
		// A Wrong statement with no recorded producers can never be
		// blamed (there is no frontier to check) and never explained
		// (there is no dependency to pass the blame to). No further
		// judgement changes that.
		if len(s.graph.Dependencies(w)) == 0 {
			s.conclude(Inconsistent, nil)
			return
		}
	}

	relevant := s.relevantSet(wrongs, exonerated)
	if len(relevant) > 0 {
		s.verdict = Unresolved
		s.fault = nil
		s.pending = s.graph.Vertex(s.selectQuery(relevant, exonerated))
		return
	}

	switch {
	case len(faulty) == 1 && s.explainsAll(faulty[0], wrongs):
		s.conclude(Faulty, s.graph.Vertex(faulty[0]))
	case len(wrongs) == 0:
		s.conclude(NoFaultFound, nil)
	default:
		s.conclude(Inconsistent, nil)
	}
}

func (s *Session) conclude(v Verdict, fault *comptree.Vertex) {
	s.verdict = v
	s.fault = fault
	s.pending = nil
}

// exoneratedSet marks every vertex a Right-judged vertex depends on. A
// Right equation settles the whole call chain that produced it: the fault
// cannot sit among those producers, so they need no queries of their own.
// The synthetic root's Right is a convention, not evidence, and exonerates
// nothing.
func (s *Session) exoneratedSet() map[comptree.VertexID]bool {
	exonerated := make(map[comptree.VertexID]bool)
	for _, v := range s.graph.Vertices()[1:] {
		if v.Judgement != comptree.Right {
			continue
		}
		for id := range s.graph.Ancestors(v.ID) {
			exonerated[id] = true
		}
	}
	return exonerated
}

// faultySet applies the fault criterion: a Wrong vertex whose producers
// all checked out, either judged Right directly or exonerated by a Right
// judgement further out. Vertices with no producers never qualify; their
// wrongness has nowhere to come from and is handled as a contradiction.
func (s *Session) faultySet(wrongs []comptree.VertexID, exonerated map[comptree.VertexID]bool) []comptree.VertexID {
	var faulty []comptree.VertexID
	for _, id := range wrongs {
		deps := s.graph.Dependencies(id)
		if len(deps) == 0 {
			continue
		}
		ok := true
		for _, d := range deps {
			if !s.effectivelyRight(d, exonerated) {
				ok = false
				break
			}
		}
		if ok {
			faulty = append(faulty, id)
		}
	}
	return faulty
}

func (s *Session) effectivelyRight(id comptree.VertexID, exonerated map[comptree.VertexID]bool) bool {
	return s.graph.Vertex(id).Judgement == comptree.Right || exonerated[id]
}

// explainsAll reports whether the candidate fault accounts for every
// observed Wrong: each one either is the fault or was produced under it,
// so the wrongness could flow from the fault into its inputs.
func (s *Session) explainsAll(fault comptree.VertexID, wrongs []comptree.VertexID) bool {
	for _, w := range wrongs {
		if w == fault {
			continue
		}
		if !s.graph.Ancestors(w)[fault] {
			return false
		}
	}
	return true
}

// relevantSet returns the Unassessed vertices whose judgement could still
// move the outcome: not exonerated, and among the producers of every Wrong
// vertex (a consistent single fault must explain each observed Wrong).
// While no Wrong has been seen, every unexonerated vertex is relevant.
func (s *Session) relevantSet(wrongs []comptree.VertexID, exonerated map[comptree.VertexID]bool) []comptree.VertexID {
	inRegion := func(id comptree.VertexID) bool {
		for _, w := range wrongs {
			if !s.graph.Ancestors(w)[id] {
				return false
			}
		}
		return true
	}

	var relevant []comptree.VertexID
	for _, v := range s.graph.Vertices()[1:] {
		if v.Judgement != comptree.Unassessed || exonerated[v.ID] {
			continue
		}
		if inRegion(v.ID) {
			relevant = append(relevant, v.ID)
		}
	}
	return relevant
}

// selectQuery is the divide-and-query step: among the relevant candidates,
// pick the one whose dependency chain holds the largest total unjudged
// weight, where a vertex weighs the rendered size of its statement. Ties
// break toward the lowest handle so runs over the same trace reproduce.
func (s *Session) selectQuery(relevant []comptree.VertexID, exonerated map[comptree.VertexID]bool) comptree.VertexID {
	best := relevant[0]
	bestWeight := -1
	for _, id := range relevant {
		w := s.chainWeight(id, exonerated)
		if w > bestWeight || (w == bestWeight && id < best) {
			best = id
			bestWeight = w
		}
	}
	return best
}

func (s *Session) chainWeight(id comptree.VertexID, exonerated map[comptree.VertexID]bool) int {
	total := s.vertexWeight(id, exonerated)
	for d := range s.graph.Ancestors(id) {
		total += s.vertexWeight(d, exonerated)
	}
	return total
}

func (s *Session) vertexWeight(id comptree.VertexID, exonerated map[comptree.VertexID]bool) int {
	v := s.graph.Vertex(id)
	if v.Judgement != comptree.Unassessed || exonerated[id] {
		return 0
	}
	return len(v.Stmt.Text())
}
