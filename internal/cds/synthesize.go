package cds

import (
	"fmt"

	"faultline/internal/forest"
)

// Synthesize runs construction, simplification and rendering over every
// tree of the forest, in forest order. Trees that yield no renderable
// statement are skipped; each skip is reported as a warning so callers can
// surface the reduced graph coverage.
func Synthesize(f *forest.Forest) ([]*Statement, []string) {
	var stmts []*Statement
	var warnings []string
	for _, t := range f.Trees {
		root := t.RootEvent()
		structure := Simplify(Build(t))
		stmt, ok := Render(structure, root.CallStack, root.ID)
		if !ok {
			warnings = append(warnings,
				fmt.Sprintf("tree at event %d (%q) produced no renderable statement", root.ID, root.Payload))
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, warnings
}
