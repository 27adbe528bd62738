package build

import (
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// buildBlockTerm dispatches an end-terminated block (§4.4) by its opening keyword. Every such
// block force-breaks unconditionally: none of case/if/receive/try/begin/fun-clauses ever render
// on a single line, independent of width.
func buildBlockTerm(toks []token.Token) (docFn, []token.Token, bool, error) {
	switch toks[0].Kind {
	case token.KwCase:
		return buildCase(toks)
	case token.KwIf:
		return buildIf(toks)
	case token.KwReceive:
		return buildReceive(toks)
	case token.KwTry:
		return buildTry(toks)
	case token.KwBegin:
		return buildBegin(toks)
	case token.KwFun:
		return buildFunBlock(toks)
	default:
		return nil, nil, false, errUnknown(toks[0], "unrecognised block keyword")
	}
}

// buildCase builds "case Arg of Clauses end". The "of" sits on the same line as "case Arg".
func buildCase(toks []token.Token) (docFn, []token.Token, bool, error) {
	consumed, rest, err := Until(toks, token.KwEnd)
	if err != nil {
		return nil, nil, false, err
	}
	body := consumed[1 : len(consumed)-1]

	argToks, term, after, err := UntilOf(body)
	if err != nil {
		return nil, nil, false, err
	}
	if term.Kind != token.KwOf {
		return nil, nil, false, errUnknown(term, "expected 'of' in a case block")
	}
	argFn, argForce, err := buildExpr(argToks)
	if err != nil {
		return nil, nil, false, err
	}
	clausesFn, _, err := buildClauses(after)
	if err != nil {
		return nil, nil, false, err
	}

	out := func(d *layout.Doc) {
		d.Text("case ")
		if argForce {
			d.ForceBreak(argFn)
		} else {
			d.Group(argFn)
		}
		d.Text(" of")
		d.Nest(indentWidth, func(d *layout.Doc) {
			d.HardLine()
			clausesFn(d)
		})
		d.HardLine()
		d.Text("end")
	}
	return out, rest, true, nil
}

// buildIf builds "if Clauses end". Unlike case, there is no subject expression.
func buildIf(toks []token.Token) (docFn, []token.Token, bool, error) {
	consumed, rest, err := Until(toks, token.KwEnd)
	if err != nil {
		return nil, nil, false, err
	}
	body := consumed[1 : len(consumed)-1]
	clausesFn, _, err := buildClauses(body)
	if err != nil {
		return nil, nil, false, err
	}
	out := func(d *layout.Doc) {
		d.Text("if")
		d.Nest(indentWidth, func(d *layout.Doc) {
			d.HardLine()
			clausesFn(d)
		})
		d.HardLine()
		d.Text("end")
	}
	return out, rest, true, nil
}

// buildReceive builds "receive Clauses [after Timeout -> Body] end".
func buildReceive(toks []token.Token) (docFn, []token.Token, bool, error) {
	consumed, rest, err := Until(toks, token.KwEnd)
	if err != nil {
		return nil, nil, false, err
	}
	body := consumed[1 : len(consumed)-1]

	mainToks, after, found := splitAfter(body)

	var clausesFn docFn
	hasClauses := len(mainToks) > 0
	if hasClauses {
		clausesFn, _, err = buildClauses(mainToks)
		if err != nil {
			return nil, nil, false, err
		}
	}

	var afterFn docFn
	if found {
		head, _, afterBody, err := splitClauseHead(after)
		if err != nil {
			return nil, nil, false, err
		}
		timeoutFn, _, err := buildExpr(head)
		if err != nil {
			return nil, nil, false, err
		}
		bodyFn, err := buildExprSeq(afterBody)
		if err != nil {
			return nil, nil, false, err
		}
		afterFn = func(d *layout.Doc) {
			d.Text("after ")
			timeoutFn(d)
			d.Nest(indentWidth, func(d *layout.Doc) {
				d.HardLine()
				bodyFn(d)
			})
		}
	}

	out := func(d *layout.Doc) {
		d.Text("receive")
		if hasClauses {
			d.Nest(indentWidth, func(d *layout.Doc) {
				d.HardLine()
				clausesFn(d)
			})
		}
		if found {
			d.HardLine()
			afterFn(d)
		}
		d.HardLine()
		d.Text("end")
	}
	return out, rest, true, nil
}

// splitAfter splits a receive's body into its clauses and an optional top-level "after" tail.
func splitAfter(body []token.Token) (main, after []token.Token, found bool) {
	pre, _, rest, ok := UntilAny(body, token.KwAfter)
	if !ok {
		return body, nil, false
	}
	return pre, rest, true
}

// buildTry builds "try Stuff [of Clauses] [catch Handlers] [after Exprs] end". catch and after
// are peers of try, each on their own line with their own indented body, the same as of.
func buildTry(toks []token.Token) (docFn, []token.Token, bool, error) {
	consumed, rest, err := Until(toks, token.KwEnd)
	if err != nil {
		return nil, nil, false, err
	}
	body := consumed[1 : len(consumed)-1]

	stuffToks, term, afterTerm, err := UntilOf(body)
	if err != nil {
		return nil, nil, false, err
	}
	stuffFn, err := buildExprSeq(stuffToks)
	if err != nil {
		return nil, nil, false, err
	}

	var hasOf, hasCatch, hasAfter bool
	var ofFn, catchFn, afterFn docFn
	remaining := afterTerm
	cur := term

	if cur.Kind == token.KwOf {
		hasOf = true
		ofBody, t2, rem2, found := UntilAny(remaining, token.KwCatch|token.KwAfter)
		if !found {
			ofBody, rem2 = remaining, nil
		}
		ofFn, _, err = buildClauses(ofBody)
		if err != nil {
			return nil, nil, false, err
		}
		remaining = rem2
		cur = t2
	}

	if cur.Kind == token.KwCatch {
		hasCatch = true
		catchBody, t2, rem2, found := UntilAny(remaining, token.KwAfter)
		if !found {
			catchBody, rem2 = remaining, nil
		}
		catchFn, _, err = buildClauses(catchBody)
		if err != nil {
			return nil, nil, false, err
		}
		remaining = rem2
		cur = t2
	}

	if cur.Kind == token.KwAfter {
		hasAfter = true
		afterFn, err = buildExprSeq(remaining)
		if err != nil {
			return nil, nil, false, err
		}
	}

	out := func(d *layout.Doc) {
		d.Text("try")
		d.Nest(indentWidth, func(d *layout.Doc) {
			d.HardLine()
			stuffFn(d)
		})
		if hasOf {
			d.HardLine()
			d.Text("of")
			d.Nest(indentWidth, func(d *layout.Doc) {
				d.HardLine()
				ofFn(d)
			})
		}
		if hasCatch {
			d.HardLine()
			d.Text("catch")
			d.Nest(indentWidth, func(d *layout.Doc) {
				d.HardLine()
				catchFn(d)
			})
		}
		if hasAfter {
			d.HardLine()
			d.Text("after")
			d.Nest(indentWidth, func(d *layout.Doc) {
				d.HardLine()
				afterFn(d)
			})
		}
		d.HardLine()
		d.Text("end")
	}
	return out, rest, true, nil
}

// buildBegin builds "begin Exprs end".
func buildBegin(toks []token.Token) (docFn, []token.Token, bool, error) {
	consumed, rest, err := Until(toks, token.KwEnd)
	if err != nil {
		return nil, nil, false, err
	}
	body := consumed[1 : len(consumed)-1]
	exprsFn, err := buildExprSeq(body)
	if err != nil {
		return nil, nil, false, err
	}
	out := func(d *layout.Doc) {
		d.Text("begin")
		d.Nest(indentWidth, func(d *layout.Doc) {
			d.HardLine()
			exprsFn(d)
		})
		d.HardLine()
		d.Text("end")
	}
	return out, rest, true, nil
}

// buildFunBlock builds an anonymous fun's clause list: "fun Clauses end", each clause shaped
// "(Args) [when Guard] -> Body" — a clause head that starts with a bracket group parses through
// [buildClauseHead] exactly like any other expression.
func buildFunBlock(toks []token.Token) (docFn, []token.Token, bool, error) {
	consumed, rest, err := Until(toks, token.KwEnd)
	if err != nil {
		return nil, nil, false, err
	}
	body := consumed[1 : len(consumed)-1]
	clausesFn, _, err := buildClauses(body)
	if err != nil {
		return nil, nil, false, err
	}
	out := func(d *layout.Doc) {
		d.Text("fun")
		d.Nest(indentWidth, func(d *layout.Doc) {
			d.HardLine()
			clausesFn(d)
		})
		d.HardLine()
		d.Text("end")
	}
	return out, rest, true, nil
}
