package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hashicorp/cli"

	"github.com/bsm/erlfmt/internal/lexer"
	"github.com/bsm/erlfmt/token"
)

// InspectTokensCommand streams the lexer's token output for debugging, a direct adaptation of
// teleivo/dot's cmd/tokens/main.go (itself described there as a scanner debugging tool not
// intended for distribution), retargeted at this language's token.Kind set.
type InspectTokensCommand struct {
	UI cli.Ui
}

func (c *InspectTokensCommand) Synopsis() string {
	return "Dump the token stream for a file or stdin"
}

func (c *InspectTokensCommand) Help() string {
	return "Usage: erlfmt inspect tokens [path]\n\n" +
		"  Print every token the lexer produces, one per line. Reads from the given\n" +
		"  path, or from stdin if no path is given."
}

func (c *InspectTokensCommand) Run(args []string) int {
	fs := flag.NewFlagSet("inspect tokens", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var r io.Reader = os.Stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		defer f.Close()
		r = f
	}

	lx, err := lexer.New(r)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error scanning: %v", err))
		return 1
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintf(tw, "LINE\tKIND\tLITERAL\n")

	for {
		tok, err := lx.Next()
		if err != nil {
			fmt.Fprintf(tw, "%d\tERROR\t%v\n", tok.Line, err)
			return 1
		}
		if tok.Kind == token.EOF {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", tok.Line, tok.Kind, literal(tok))
	}
	return 0
}

func literal(t token.Token) string {
	if t.Literal == "" {
		return t.Kind.String()
	}
	return t.Literal
}
