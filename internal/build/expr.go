package build

import (
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// indentWidth is the fixed indent step used by [layout.Doc.Nest] everywhere in the builder. Every
// [layout.Doc.Underneath] instead anchors to the current column, per the output invariant that
// indentation is a multiple of 4 columns plus column-anchored offsets.
const indentWidth = 4

// docFn writes a previously-built fragment into d. Builder functions return one instead of
// writing eagerly so that a caller can inspect whether the fragment force-broke before deciding
// whether to wrap it in [layout.Doc.Group], [layout.Doc.GroupInherit], or [layout.Doc.ForceBreak]
// — the wrapper has to be chosen before any tags are appended, but whether to force it can only be
// known after the fragment itself is built.
type docFn func(d *layout.Doc)

func textFn(s string) docFn {
	return func(d *layout.Doc) { d.Text(s) }
}

func seqFn(fns ...docFn) docFn {
	return func(d *layout.Doc) {
		for _, fn := range fns {
			fn(d)
		}
	}
}

// buildExpr builds a single expression (one clause body expression, one list/tuple/map element,
// one call argument, ...) out of toks, which must contain no unconsumed top-level terminator (the
// caller sliced it with [EndOfExpr] or similar). It returns the fragment, whether it force-broke,
// and an error if toks doesn't parse as an expression.
func buildExpr(toks []token.Token) (fn docFn, forceBreak bool, err error) {
	toks, trailing, hasTrailing := splitTrailingComment(toks)
	fn, forceBreak, err = buildGuardOrJoins(toks)
	if err != nil {
		return nil, false, err
	}
	if hasTrailing {
		inner := fn
		fn = func(d *layout.Doc) {
			inner(d)
			d.Text(" ").Text(trailing.Literal)
		}
		forceBreak = true
	}
	return fn, forceBreak, nil
}

// splitTrailingComment peels a comment off the end of toks, per §4.3 item 16: an inline comment as
// the last element of an expression belongs adjacent to it and forces a break, rather than being
// parsed as an operand.
func splitTrailingComment(toks []token.Token) (rest []token.Token, comment token.Token, ok bool) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.Comment {
		return toks, token.Token{}, false
	}
	return toks[:len(toks)-1], toks[len(toks)-1], true
}

// buildGuardOrJoins handles the "when" guard/type shape (§4.3 item 4) before falling through to
// the boolean/alternative chain and everything beneath it.
func buildGuardOrJoins(toks []token.Token) (docFn, bool, error) {
	if len(toks) > 0 && toks[0].Kind == token.KwWhen {
		return buildWhen(toks[1:])
	}
	return buildJoins(toks)
}

// buildWhen builds "when " followed by the guard body anchored underneath the 'w' of "when" (§4.3
// item 4), so continuation lines line up under the guard keyword rather than at a fixed indent.
func buildWhen(toks []token.Token) (docFn, bool, error) {
	body, forceBreak, err := buildJoins(toks)
	if err != nil {
		return nil, false, err
	}
	fn := func(d *layout.Doc) {
		d.Text("when ")
		d.Underneath(0, func(d *layout.Doc) {
			if forceBreak {
				d.ForceBreak(body)
			} else {
				d.Group(body)
			}
		})
	}
	return fn, forceBreak, nil
}

// boolOrAlt is the token set [buildJoins] splits a chain on: the boolean concatenators and the
// alternative separator, per §4.3 item 14.
const boolOrAlt = token.KwAndAlso | token.KwOrElse | token.Pipe

// buildJoins recurses on the next same-level andalso/orelse/"|" so each operand groups on its own,
// per §4.3 item 14, falling through to the assignment-operator shape for a chain of one.
func buildJoins(toks []token.Token) (docFn, bool, error) {
	segs, ops, err := splitTopLevel(toks, boolOrAlt)
	if err != nil {
		return nil, false, err
	}
	if len(segs) == 1 {
		return buildAssignOrListComp(segs[0])
	}

	var fns []docFn
	var segForce []bool
	forceBreak := false
	for _, seg := range segs {
		fn, fb, err := buildAssignOrListComp(seg)
		if err != nil {
			return nil, false, err
		}
		fns = append(fns, fn)
		segForce = append(segForce, fb)
		forceBreak = forceBreak || fb
	}

	out := func(d *layout.Doc) {
		for i, fn := range fns {
			if segForce[i] {
				d.ForceBreak(fn)
			} else {
				d.Group(fn)
			}
			if i < len(ops) {
				d.Text(" " + ops[i].Kind.String())
				d.Line()
			}
		}
	}
	return out, forceBreak, nil
}

// splitTopLevel repeatedly applies [UntilAny] to split toks on every top-level member of set,
// returning the segments in between and the separators found, in order.
func splitTopLevel(toks []token.Token, set token.Set) (segs [][]token.Token, ops []token.Token, err error) {
	rest := toks
	for {
		prefix, match, r, found := UntilAny(rest, set)
		if !found {
			segs = append(segs, rest)
			return segs, ops, nil
		}
		segs = append(segs, prefix)
		ops = append(ops, match)
		rest = r
	}
}

// assignOps is the set of operators [buildAssignOrListComp] treats as an equation (§4.3 item 10).
const assignOps = token.Equal | token.EqualEqual | token.ExactEqual | token.ExactNEqual

// buildAssignOrListComp recognises "=", "==", "=:=", "=/=" (§4.3 item 10) and list comprehensions
// (§4.3 item 15) before falling through to a plain term chain.
func buildAssignOrListComp(toks []token.Token) (docFn, bool, error) {
	if prefix, match, rest, found := UntilAny(toks, assignOps); found {
		return buildAssign(prefix, match, rest)
	}
	if prefix, _, rest, found := UntilAny(toks, token.DoublePipe); found {
		return buildListComp(prefix, rest)
	}
	return buildTermChain(toks)
}

// buildAssign builds "LHS op RHS". If RHS is a boolean chain (contains a top-level andalso/orelse)
// each boolean term is rendered piecewise rather than lumped under the "="; otherwise it's built as
// an equation that force-breaks if its RHS did, with RHS aligned on its own line when broken.
func buildAssign(lhsToks []token.Token, op token.Token, rhsToks []token.Token) (docFn, bool, error) {
	lhsFn, lhsForce, err := buildTermChain(lhsToks)
	if err != nil {
		return nil, false, err
	}

	if _, _, _, isBool := UntilAny(rhsToks, token.KwAndAlso|token.KwOrElse); isBool {
		rhsFn, rhsForce, err := buildJoins(rhsToks)
		if err != nil {
			return nil, false, err
		}
		forceBreak := lhsForce || rhsForce
		out := func(d *layout.Doc) {
			d.Group(lhsFn)
			d.Text(" " + op.Kind.String())
			d.Line()
			if rhsForce {
				d.ForceBreak(rhsFn)
			} else {
				d.Group(rhsFn)
			}
		}
		return out, forceBreak, nil
	}

	rhsFn, rhsForce, err := buildAssignOrListComp(rhsToks)
	if err != nil {
		return nil, false, err
	}

	equation := func(d *layout.Doc) {
		d.Group(lhsFn)
		d.Text(" " + op.Kind.String())
		d.Line()
		if rhsForce {
			d.ForceBreak(rhsFn)
		} else {
			d.Group(rhsFn)
		}
	}
	out := func(d *layout.Doc) {
		d.Nest(indentWidth, func(d *layout.Doc) {
			if rhsForce {
				d.ForceBreak(equation)
			} else {
				d.Group(equation)
			}
		})
	}
	return out, rhsForce, nil
}

// buildListComp builds a list comprehension's "Head || Generators", per §4.3 item 15: the head
// as a term chain (through buildTermChain), then the "||" separator and the generator chain, all
// wrapped once more in a group.
func buildListComp(headToks, genToks []token.Token) (docFn, bool, error) {
	headFn, headForce, err := buildTermChain(headToks)
	if err != nil {
		return nil, false, err
	}
	genFn, genForce, err := buildJoins(genToks)
	if err != nil {
		return nil, false, err
	}
	forceBreak := headForce || genForce
	out := func(d *layout.Doc) {
		d.Group(func(d *layout.Doc) {
			headFn(d)
			d.Line()
			d.Text("||")
			d.Line()
			if genForce {
				d.ForceBreak(genFn)
			} else {
				d.Group(genFn)
			}
		})
	}
	return out, forceBreak, nil
}

// genericOps names the binary/unary operator kinds §4.3 item 17 joins with a plain space. It is
// not consulted by [buildTermChain], which joins on whatever token follows a term.
const genericOps = token.Op | token.Colon | token.ExactEqual | token.ExactNEqual

// buildTermChain builds one or more atomic terms (§4.3 items 1-9, 12-13) joined by generic binary
// operators (§4.3 item 17): after each term the next token, whatever its kind, is taken as the
// operator, and the tokens after it are built by recursing on buildTermChain. Adjacent
// literal/slash pairs are fused by [buildTerm] itself before a generic operator is ever considered.
func buildTermChain(toks []token.Token) (docFn, bool, error) {
	if len(toks) == 0 {
		return func(d *layout.Doc) {}, false, nil
	}

	fn, rest, forceBreak, err := buildTerm(toks)
	if err != nil {
		return nil, false, err
	}
	if len(rest) == 0 {
		return fn, forceBreak, nil
	}

	// A binary/unary operator token joins this term with what follows, per item 17.
	op := rest[0]
	opRest := rest[1:]
	rhsFn, rhsForce, err := buildTermChain(opRest)
	if err != nil {
		return nil, false, err
	}
	forceBreak = forceBreak || rhsForce
	out := func(d *layout.Doc) {
		fn(d)
		d.Text(" " + op.String())
		d.Line()
		rhsFn(d)
	}
	return out, forceBreak, nil
}
