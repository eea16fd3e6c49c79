package cds

// Simplify rewrites a context structure to a fixpoint: call nodes that were
// never forced collapse into holes, and sibling fragments that render
// identically are merged. Simplify is idempotent and never mutates its
// input.
func Simplify(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := clone(n)
	for {
		before := out.Count()
		out = rewrite(out)
		if out.Count() == before {
			return out
		}
	}
}

func clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Label: n.Label}
	for _, a := range n.Args {
		c.Args = append(c.Args, clone(a))
	}
	for _, r := range n.Results {
		c.Results = append(c.Results, clone(r))
	}
	for _, f := range n.Fields {
		c.Fields = append(c.Fields, clone(f))
	}
	return c
}

func rewrite(n *Node) *Node {
	if n == nil {
		return nil
	}

	// An entered-but-never-forced call contributed no information; it
	// collapses to a hole inside its nearest forced ancestor.
	if n.Kind == NodeCall && !n.Forced() {
		return &Node{Kind: NodeHole}
	}

	n.Args = rewriteAll(n.Args)
	n.Results = dedup(rewriteAll(n.Results))
	n.Fields = dedup(rewriteAll(n.Fields))
	return n
}

func rewriteAll(ns []*Node) []*Node {
	for i, c := range ns {
		ns[i] = rewrite(c)
	}
	return ns
}

// dedup removes later siblings that render identically to an earlier one.
// These are repeated observations of the same value position, not distinct
// values, so dropping them loses nothing.
func dedup(ns []*Node) []*Node {
	if len(ns) < 2 {
		return ns
	}
	seen := make(map[string]bool, len(ns))
	out := ns[:0]
	for _, c := range ns {
		key := renderNode(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
