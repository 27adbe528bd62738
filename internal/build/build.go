// Package build turns a flat token stream into a laid-out document, with no intervening AST: it
// recognises the shapes described in §§4.2-4.5 directly from the token slice and wires them into
// an [layout.Doc] using the [layout] package's document algebra.
package build

import (
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// FormatTokens is the primary entry point: it builds tokens into a document and renders it at
// width, returning the formatted source text.
func FormatTokens(tokens []token.Token, width int) (string, error) {
	doc, err := Build(tokens)
	if err != nil {
		return "", err
	}
	return layout.Pretty(doc, width)
}
