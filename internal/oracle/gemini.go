package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"faultline/internal/cds"
	"faultline/internal/comptree"
)

// Gemini judges statements with an LLM, given a free-text description of
// what the traced program is supposed to compute. It is a convenience for
// long traces; the engine treats it like any other oracle.
type Gemini struct {
	client *genai.Client
	model  string
	intent string
}

// NewGemini builds the LLM oracle. The intent text describes the intended
// behavior of the program under debugging, e.g. "insort inserts a number
// into an already sorted list, keeping it sorted".
func NewGemini(ctx context.Context, apiKey, model, intent string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model, intent: intent}, nil
}

const geminiPrompt = `You are the oracle of an algorithmic debugger.
The program under debugging has this intended behavior:

%s

Below is one observed computation statement in the form
"function arguments = result". Answer with the single word RIGHT if the
result is what the intended behavior demands for these arguments, and the
single word WRONG otherwise. Answer with nothing else.

%s`

func (g *Gemini) Judge(ctx context.Context, stmt *cds.Statement) (comptree.Judgement, error) {
	prompt := fmt.Sprintf(geminiPrompt, g.intent, stmt.Text())
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return comptree.Unassessed, fmt.Errorf("gemini judgement failed: %w", err)
	}
	answer := strings.ToUpper(strings.TrimSpace(resp.Text()))
	switch {
	case strings.HasPrefix(answer, "RIGHT"):
		return comptree.Right, nil
	case strings.HasPrefix(answer, "WRONG"):
		return comptree.Wrong, nil
	default:
		return comptree.Unassessed, fmt.Errorf("%w: unparseable model answer %q", ErrNoAnswer, resp.Text())
	}
}
