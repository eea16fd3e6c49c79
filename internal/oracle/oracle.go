// Package oracle supplies judgement providers for the localization session:
// a scripted oracle for regression runs, an interactive console oracle and
// an LLM-backed one. Every provider drives the session exclusively through
// NextQuery, SubmitJudgement and CurrentVerdict.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"faultline/internal/cds"
	"faultline/internal/comptree"
	"faultline/internal/session"
)

// ErrNoAnswer signals that the oracle cannot judge the offered statement.
// The driver skips the session for this run and reports it unresolved.
var ErrNoAnswer = errors.New("oracle has no answer for this statement")

// Oracle judges one computation statement.
type Oracle interface {
	Judge(ctx context.Context, stmt *cds.Statement) (comptree.Judgement, error)
}

// Scripted answers from a fixed table keyed by statement text. Statements
// missing from the table yield ErrNoAnswer.
type Scripted struct {
	answers map[string]comptree.Judgement
}

// NewScripted builds a deterministic oracle from equation text to verdict.
func NewScripted(answers map[string]comptree.Judgement) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) Judge(_ context.Context, stmt *cds.Statement) (comptree.Judgement, error) {
	j, ok := s.answers[stmt.Text()]
	if !ok {
		return comptree.Unassessed, fmt.Errorf("%w: %s", ErrNoAnswer, stmt.Text())
	}
	return j, nil
}

// Run drives the session to a terminal verdict or until the oracle cannot
// answer. It returns the final verdict and, for Faulty, the isolated vertex.
func Run(ctx context.Context, s *session.Session, o Oracle) (session.Verdict, *comptree.Vertex, error) {
	for {
		if err := ctx.Err(); err != nil {
			v, f := s.CurrentVerdict()
			return v, f, err
		}
		q := s.NextQuery()
		if q == nil {
			v, f := s.CurrentVerdict()
			return v, f, nil
		}
		j, err := o.Judge(ctx, q.Stmt)
		if err != nil {
			v, f := s.CurrentVerdict()
			return v, f, err
		}
		if err := s.SubmitJudgement(q.ID, j); err != nil {
			v, f := s.CurrentVerdict()
			return v, f, err
		}
	}
}
