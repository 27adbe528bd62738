package build

import (
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// buildClauseHead builds the pattern/head portion of a clause, folding in an optional "when"
// guard (§4.3 item 4) so callers don't need to know whether one was present.
func buildClauseHead(toks []token.Token) (docFn, bool, error) {
	prefix, _, guardToks, found := UntilAny(toks, token.KwWhen)
	if !found {
		return buildExpr(toks)
	}
	headFn, headForce, err := buildExpr(prefix)
	if err != nil {
		return nil, false, err
	}
	guardFn, guardForce, err := buildWhen(guardToks)
	if err != nil {
		return nil, false, err
	}
	out := func(d *layout.Doc) {
		headFn(d)
		d.Text(" ")
		if guardForce {
			d.ForceBreak(guardFn)
		} else {
			d.Group(guardFn)
		}
	}
	return out, headForce || guardForce, nil
}

// splitClauseHead scans toks for a top-level "->" or "::", the separator between a clause's head
// and its body (or, for a type alternative, its definition). It is bracket/keyword aware exactly
// like [Until].
func splitClauseHead(toks []token.Token) (head []token.Token, sep token.Kind, rest []token.Token, err error) {
	prefix, match, r, found := UntilAny(toks, token.Arrow|token.ColonColon)
	if !found {
		return nil, 0, nil, errUnexpectedEOF(eof(toks), "expected '->' or '::' in a clause head")
	}
	return prefix, match.Kind, r, nil
}

// buildExprSeq builds a comma-separated run of expression statements, each on its own line when
// the sequence is rendered (try/begin bodies and a receive's "after" tail are always rendered
// this way, never flattened to one line, matching how every end-terminated block renders).
func buildExprSeq(toks []token.Token) (docFn, error) {
	exprToks, _, err := splitTopLevel(toks, token.Comma)
	if err != nil {
		return nil, err
	}
	var fns []docFn
	for _, e := range exprToks {
		fn, _, err := buildExpr(e)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return func(d *layout.Doc) {
		for i, fn := range fns {
			fn(d)
			if i < len(fns)-1 {
				d.Text(",")
				d.HardLine()
			}
		}
	}, nil
}

// allComments reports whether toks is non-empty and consists entirely of comment tokens.
func allComments(toks []token.Token) bool {
	if len(toks) == 0 {
		return false
	}
	for _, t := range toks {
		if t.Kind != token.Comment {
			return false
		}
	}
	return true
}

// peelLeadingComments splits off any comment tokens at the very front of toks, each destined to
// become its own leading line before the clause that follows.
func peelLeadingComments(toks []token.Token) (comments, rest []token.Token) {
	i := 0
	for i < len(toks) && toks[i].Kind == token.Comment {
		i++
	}
	return toks[:i], toks[i:]
}

// buildClauses splits blob on a top-level ";" into clauses, builds each with buildOneClause, and
// joins them per §4.4: more than one clause always force-breaks, each ending in ";" except the
// last. Comments occurring between clauses are carried as leading lines on the clause that
// follows them; comments left after the very last clause are trailing lines of the whole list.
func buildClauses(blob []token.Token) (docFn, bool, error) {
	segs, _, err := splitTopLevel(blob, token.Semicolon)
	if err != nil {
		return nil, false, err
	}

	var trailing []token.Token
	for len(segs) > 0 && allComments(segs[len(segs)-1]) {
		trailing = append(append([]token.Token{}, segs[len(segs)-1]...), trailing...)
		segs = segs[:len(segs)-1]
	}
	if len(segs) == 0 {
		return nil, false, errUnexpectedEOF(eof(blob), "expected at least one clause")
	}

	multi := len(segs) > 1
	var fns []docFn
	var forces []bool
	for _, seg := range segs {
		leading, seg := peelLeadingComments(seg)
		fn, fb, err := buildOneClause(seg)
		if err != nil {
			return nil, false, err
		}
		if len(leading) > 0 {
			inner, comments := fn, leading
			fn = func(d *layout.Doc) {
				for _, c := range comments {
					d.Text(c.Literal)
					d.HardLine()
				}
				inner(d)
			}
			fb = true
		}
		fns = append(fns, fn)
		forces = append(forces, fb || multi)
	}

	forceBreak := multi || len(trailing) > 0
	for _, fb := range forces {
		forceBreak = forceBreak || fb
	}

	out := func(d *layout.Doc) {
		for i, fn := range fns {
			if forces[i] {
				d.ForceBreak(fn)
			} else {
				d.Group(fn)
			}
			if i < len(fns)-1 {
				d.Text(";")
				d.HardLine()
			}
		}
		for _, c := range trailing {
			d.HardLine()
			d.Text(c.Literal)
		}
	}
	return out, forceBreak, nil
}

// buildOneClause builds a single clause: "Head -> Body" or, for a type alternative, "Head ::
// Definition". A single-expression arrow body may stay on the head's line when it fits; more than
// one body expression force-breaks onto indented lines of their own. A type definition is anchored
// two columns left of the column after "::" and breaks onto its own line exactly when the group
// enclosing the clause is broken (or when the definition itself forces a break).
func buildOneClause(seg []token.Token) (docFn, bool, error) {
	head, sepKind, body, err := splitClauseHead(seg)
	if err != nil {
		return nil, false, err
	}
	headFn, headForce, err := buildClauseHead(head)
	if err != nil {
		return nil, false, err
	}
	sepText := "->"
	if sepKind == token.ColonColon {
		sepText = "::"
	}

	if sepKind == token.ColonColon {
		bodyFn, bodyForce, err := buildExpr(body)
		if err != nil {
			return nil, false, err
		}
		forceBreak := headForce || bodyForce
		out := func(d *layout.Doc) {
			headFn(d)
			d.Text(" " + sepText)
			d.Underneath(-2, func(d *layout.Doc) {
				inner := func(d *layout.Doc) {
					d.Line()
					bodyFn(d)
				}
				if bodyForce {
					d.ForceBreak(inner)
				} else {
					d.GroupInherit(inner)
				}
			})
		}
		return out, forceBreak, nil
	}

	exprToks, _, err := splitTopLevel(body, token.Comma)
	if err != nil {
		return nil, false, err
	}
	var fns []docFn
	anyForce := false
	for _, e := range exprToks {
		fn, fb, err := buildExpr(e)
		if err != nil {
			return nil, false, err
		}
		fns = append(fns, fn)
		anyForce = anyForce || fb
	}
	multi := len(fns) > 1
	forceBreak := headForce || anyForce || multi

	bodySeq := func(d *layout.Doc) {
		for i, fn := range fns {
			fn(d)
			if i < len(fns)-1 {
				d.Text(",")
				d.HardLine()
			}
		}
	}

	out := func(d *layout.Doc) {
		headFn(d)
		d.Text(" " + sepText)
		d.Nest(indentWidth, func(d *layout.Doc) {
			inner := func(d *layout.Doc) {
				d.Line()
				bodySeq(d)
			}
			if forceBreak {
				d.ForceBreak(inner)
			} else {
				d.Group(inner)
			}
		})
	}
	return out, forceBreak, nil
}
