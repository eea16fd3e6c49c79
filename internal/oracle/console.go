package oracle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"faultline/internal/cds"
	"faultline/internal/comptree"
)

// Console asks a human to judge statements on a terminal.
type Console struct {
	in  *bufio.Scanner
	out io.Writer

	asked int
}

// NewConsole builds an interactive oracle over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
}

var (
	labelColor = color.New(color.FgCyan, color.Bold)
	stackColor = color.New(color.Faint)
	errColor   = color.New(color.FgRed)
)

func (c *Console) Judge(ctx context.Context, stmt *cds.Statement) (comptree.Judgement, error) {
	c.asked++
	fmt.Fprintf(c.out, "\n[%d] %s\n", c.asked, labelColor.Sprint(stmt.Text()))
	if len(stmt.CallStack) > 0 {
		fmt.Fprintf(c.out, "    %s\n", stackColor.Sprintf("called via %s", strings.Join(stmt.CallStack, " > ")))
	}

	for {
		if err := ctx.Err(); err != nil {
			return comptree.Unassessed, err
		}
		fmt.Fprint(c.out, "Is this statement correct? [y]es / [n]o / [q]uit: ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return comptree.Unassessed, err
			}
			return comptree.Unassessed, ErrNoAnswer
		}
		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "y", "yes", "right":
			return comptree.Right, nil
		case "n", "no", "wrong":
			return comptree.Wrong, nil
		case "q", "quit":
			return comptree.Unassessed, ErrNoAnswer
		default:
			errColor.Fprintln(c.out, "please answer y, n or q")
		}
	}
}
