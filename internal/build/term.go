package build

import (
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// buildTerm builds exactly one atomic term from the front of toks — a literal, a call, a group, a
// record/map expression, a fun reference, or a delegated block — and returns the tokens left over
// after it. The dispatch order follows §4.3's numbered shape list (items 1-3, 5-9, 12-13; item 4
// is handled one level up, in [buildTerm]'s callers, and items 10-11, 14-17 are the joins
// [buildTermChain] and its callers build around repeated calls to this function).
func buildTerm(toks []token.Token) (fn docFn, rest []token.Token, forceBreak bool, err error) {
	if len(toks) == 0 {
		return nil, nil, false, errUnexpectedEOF(eof(toks), "expected an expression")
	}
	t := toks[0]

	// 1 & 2: macro reference, macro call.
	if t.Kind == token.Question {
		return buildMacro(toks)
	}

	// 3, and the block form of 6: delegate entirely to the block builder.
	if t.OpensBlock(toks[1:]) {
		return buildBlockTerm(toks)
	}

	// 5: record/map syntax.
	if t.Kind == token.Hash || (t.Kind == token.Var && len(toks) > 1 && toks[1].Kind == token.Hash) {
		return buildRecordOrMap(toks)
	}

	// 6, non-block fun forms (arity references and the bracketed type form).
	if t.Kind == token.KwFun {
		return buildFunVariant(toks)
	}

	// 7 & 8: qualified call (M:F(Args), bare M:F) and local call (F(Args)).
	if (t.Kind == token.Atom || t.Kind == token.Var) && len(toks) > 1 &&
		(toks[1].Kind == token.Colon || toks[1].Kind == token.LParen) {
		return buildQualifiedOrLocalCall(toks)
	}

	// 9: list/tuple/map/bitstring group, or a parenthesized expression.
	if t.Kind.In(token.LBracket | token.LBrace | token.DoubleLAngle | token.LParen) {
		return buildGroup(toks)
	}

	// 12 & 13: arity literal fusion, else a plain literal.
	return buildArityOrLiteral(toks)
}

func buildMacro(toks []token.Token) (docFn, []token.Token, bool, error) {
	if len(toks) < 2 {
		return nil, nil, false, errUnexpectedEOF(eof(toks), "expected a name after '?'")
	}
	name := toks[1].String()
	if len(toks) > 2 && toks[2].Kind == token.LParen {
		argsFn, forceBreak, rest, err := consumeArgs(toks[2:])
		if err != nil {
			return nil, nil, false, err
		}
		out := func(d *layout.Doc) {
			d.Text("?" + name)
			argsFn(d)
		}
		return out, rest, forceBreak, nil
	}
	return textFn("?" + name), toks[2:], false, nil
}

// consumeArgs consumes a parenthesized, comma-separated argument list starting at toks[0], which
// must be "(". It returns the built fragment (including the parens themselves) and the tokens
// left over after the closing ")".
func consumeArgs(toks []token.Token) (docFn, bool, []token.Token, error) {
	if len(toks) == 0 || toks[0].Kind != token.LParen {
		return nil, false, nil, errUnknown(eof(toks), "expected '(' to start an argument list")
	}
	consumed, rest, err := Until(toks, token.RParen)
	if err != nil {
		return nil, false, nil, err
	}
	inner := consumed[1 : len(consumed)-1]
	fn, forceBreak, err := buildBracket("(", ")", inner)
	if err != nil {
		return nil, false, nil, err
	}
	return fn, forceBreak, rest, nil
}

func buildRecordOrMap(toks []token.Token) (docFn, []token.Token, bool, error) {
	prefixFn := func(d *layout.Doc) {}
	i := 0
	if toks[0].Kind == token.Var {
		prefixFn = textFn(toks[0].String())
		i = 1
	}
	hashTok := toks[i]
	i++ // consume '#'

	if i < len(toks) && toks[i].Kind == token.LBrace {
		consumed, rest, err := Until(toks[i:], token.RBrace)
		if err != nil {
			return nil, nil, false, err
		}
		inner := consumed[1 : len(consumed)-1]
		bodyFn, forceBreak, err := buildBracket("{", "}", inner)
		if err != nil {
			return nil, nil, false, err
		}
		out := func(d *layout.Doc) {
			prefixFn(d)
			d.Text("#")
			bodyFn(d)
		}
		return out, rest, forceBreak, nil
	}

	var nameFn docFn
	switch {
	case i < len(toks) && toks[i].Kind == token.Question && i+1 < len(toks):
		nameFn = textFn("?" + toks[i+1].String())
		i += 2
	case i < len(toks):
		nameFn = textFn(FormatAtom(toks[i].Literal))
		i++
	default:
		return nil, nil, false, errUnexpectedEOF(eof(toks), "expected a record name after '#'")
	}

	if i < len(toks) && toks[i].Kind == token.LBrace {
		consumed, rest, err := Until(toks[i:], token.RBrace)
		if err != nil {
			return nil, nil, false, err
		}
		inner := consumed[1 : len(consumed)-1]
		bodyFn, forceBreak, err := buildBracket("{", "}", inner)
		if err != nil {
			return nil, nil, false, err
		}
		out := func(d *layout.Doc) {
			prefixFn(d)
			d.Text("#")
			nameFn(d)
			bodyFn(d)
		}
		return out, rest, forceBreak, nil
	}
	if i < len(toks) && toks[i].Kind == token.Dot && i+1 < len(toks) {
		keyTok := toks[i+1]
		out := func(d *layout.Doc) {
			prefixFn(d)
			d.Text("#")
			nameFn(d)
			d.Text(".")
			d.Text(keyTok.String())
		}
		return out, toks[i+2:], false, nil
	}
	return nil, nil, false, errUnknown(hashTok, "unrecognised record/map shape after '#'")
}

func buildFunVariant(toks []token.Token) (docFn, []token.Token, bool, error) {
	rest := toks[1:]
	if len(rest) > 1 && rest[0].Kind == token.LParen && rest[1].Kind == token.LParen {
		consumed, after, err := Until(rest, token.RParen)
		if err != nil {
			return nil, nil, false, err
		}
		inner := consumed[1 : len(consumed)-1]
		out := textFn("fun(" + flattenToks(inner) + ")")
		return out, after, false, nil
	}
	arityText, after, err := consumeArityText(rest)
	if err != nil {
		return nil, nil, false, err
	}
	return textFn("fun " + arityText), after, false, nil
}

// consumeArityText consumes an arity reference (F/A, M:F/A, ?Mac/A, ?Mac:F/A, Var:F/A) and renders
// it with no internal spaces, the way arity references always print.
func consumeArityText(toks []token.Token) (string, []token.Token, error) {
	name, rest, err := arityPart(toks)
	if err != nil {
		return "", nil, err
	}
	if len(rest) > 0 && rest[0].Kind == token.Colon {
		second, r2, err := arityPart(rest[1:])
		if err != nil {
			return "", nil, err
		}
		name, rest = name+":"+second, r2
	}
	if len(rest) < 2 || rest[0].Kind != token.Slash || rest[1].Kind != token.Int {
		return "", nil, errUnknown(eof(rest), "expected /Arity in arity reference")
	}
	return name + "/" + rest[1].Literal, rest[2:], nil
}

func arityPart(toks []token.Token) (string, []token.Token, error) {
	if len(toks) == 0 {
		return "", nil, errUnexpectedEOF(eof(toks), "expected a name in an arity reference")
	}
	switch toks[0].Kind {
	case token.Question:
		if len(toks) < 2 {
			return "", nil, errUnexpectedEOF(eof(toks), "expected a macro name after '?'")
		}
		return "?" + toks[1].String(), toks[2:], nil
	case token.Atom:
		return FormatAtom(toks[0].Literal), toks[1:], nil
	case token.Var:
		return toks[0].String(), toks[1:], nil
	default:
		return "", nil, errUnknown(toks[0], "expected an atom, variable, or macro in an arity reference")
	}
}

func buildQualifiedOrLocalCall(toks []token.Token) (docFn, []token.Token, bool, error) {
	nameTok := toks[0]
	nameText := nameTok.String()
	if nameTok.Kind == token.Atom {
		nameText = FormatAtom(nameTok.Literal)
	}
	rest := toks[1:]

	if len(rest) > 0 && rest[0].Kind == token.Colon {
		rest = rest[1:]
		qPrefix := ""
		if len(rest) > 0 && rest[0].Kind == token.Question {
			qPrefix = "?"
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return nil, nil, false, errUnexpectedEOF(eof(rest), "expected a function name after ':'")
		}
		fTok := rest[0]
		fText := qPrefix + fTok.String()
		if fTok.Kind == token.Atom && qPrefix == "" {
			fText = FormatAtom(fTok.Literal)
		}
		rest = rest[1:]
		qualified := nameText + ":" + fText
		if len(rest) > 0 && rest[0].Kind == token.LParen {
			argsFn, forceBreak, after, err := consumeArgs(rest)
			if err != nil {
				return nil, nil, false, err
			}
			out := func(d *layout.Doc) {
				d.Text(qualified)
				argsFn(d)
			}
			return out, after, forceBreak, nil
		}
		return textFn(qualified), rest, false, nil
	}

	if len(rest) > 0 && rest[0].Kind == token.LParen {
		argsFn, forceBreak, after, err := consumeArgs(rest)
		if err != nil {
			return nil, nil, false, err
		}
		out := func(d *layout.Doc) {
			d.Text(nameText)
			argsFn(d)
		}
		return out, after, forceBreak, nil
	}

	return textFn(nameText), rest, false, nil
}

func buildGroup(toks []token.Token) (docFn, []token.Token, bool, error) {
	open := toks[0]
	var closeKind token.Kind
	var openText, closeText string
	switch open.Kind {
	case token.LBracket:
		closeKind, openText, closeText = token.RBracket, "[", "]"
	case token.LBrace:
		closeKind, openText, closeText = token.RBrace, "{", "}"
	case token.DoubleLAngle:
		closeKind, openText, closeText = token.DoubleRAngle, "<<", ">>"
	case token.LParen:
		closeKind, openText, closeText = token.RParen, "(", ")"
	default:
		return nil, nil, false, errUnknown(open, "expected an opening bracket")
	}

	consumed, rest, err := Until(toks, closeKind)
	if err != nil {
		return nil, nil, false, err
	}
	inner := consumed[1 : len(consumed)-1]

	// A list may be a comprehension "[Head || Generators]"; buildBracket's top-level comma split
	// would wrongly cut a comprehension's generator list, so detect it before splitting.
	if open.Kind == token.LBracket {
		if _, _, _, found := UntilAny(inner, token.DoublePipe); found {
			fn, forceBreak, err := buildExpr(inner)
			if err != nil {
				return nil, nil, false, err
			}
			out := func(d *layout.Doc) {
				d.Text("[")
				if forceBreak {
					d.ForceBreak(fn)
				} else {
					d.Group(fn)
				}
				d.Text("]")
			}
			return out, rest, forceBreak, nil
		}
	}

	fn, forceBreak, err := buildBracket(openText, closeText, inner)
	if err != nil {
		return nil, nil, false, err
	}
	return fn, rest, forceBreak, nil
}

func buildArityOrLiteral(toks []token.Token) (docFn, []token.Token, bool, error) {
	if len(toks) == 0 {
		return nil, nil, false, errUnexpectedEOF(eof(toks), "expected an expression")
	}
	t := toks[0]

	// Var:Int/atom binary type specifier.
	if t.Kind == token.Var && len(toks) >= 5 && toks[1].Kind == token.Colon &&
		toks[2].Kind == token.Int && toks[3].Kind == token.Slash && toks[4].Kind == token.Atom {
		text := t.String() + ":" + toks[2].Literal + "/" + FormatAtom(toks[4].Literal)
		return textFn(text), toks[5:], false, nil
	}

	// atom/int arity literal; Var/int, Var/atom, "str"/atom binary type specifiers.
	if len(toks) >= 3 && toks[1].Kind == token.Slash &&
		(t.Kind == token.Atom || t.Kind == token.Var || t.Kind == token.Str) &&
		(toks[2].Kind == token.Int || toks[2].Kind == token.Atom) {
		rhsText := toks[2].Literal
		if toks[2].Kind == token.Atom {
			rhsText = FormatAtom(toks[2].Literal)
		}
		return textFn(literalText(t) + "/" + rhsText), toks[3:], false, nil
	}

	fn, err := buildLiteral(t)
	if err != nil {
		return nil, nil, false, err
	}
	return fn, toks[1:], false, nil
}

func literalText(t token.Token) string {
	switch t.Kind {
	case token.Atom:
		return FormatAtom(t.Literal)
	case token.Str:
		return FormatString(t.Literal)
	default:
		return t.Literal
	}
}

func buildLiteral(t token.Token) (docFn, error) {
	switch t.Kind {
	case token.Atom:
		return textFn(FormatAtom(t.Literal)), nil
	case token.Var, token.Int, token.Float:
		return textFn(t.Literal), nil
	case token.Str:
		return textFn(FormatString(t.Literal)), nil
	case token.Char:
		if t.Literal == "" {
			return textFn("$"), nil
		}
		return textFn(FormatChar([]rune(t.Literal)[0])), nil
	default:
		return nil, errUnknown(t, "unrecognised literal kind %s", t.Kind)
	}
}

// flattenToks renders a token run as plain space-joined canonical text, with no internal
// breakability. Used for the bracketed fun type form ("fun((Args) -> Ret)"), a construct rare
// enough in practice that a single-line rendering is an acceptable simplification rather than
// threading full group/break structure through a type grammar of its own.
func flattenToks(toks []token.Token) string {
	s := ""
	for i, t := range toks {
		if i > 0 && needsSpace(toks[i-1], t) {
			s += " "
		}
		s += literalOrText(t)
	}
	return s
}

func needsSpace(prev, cur token.Token) bool {
	noSpaceBefore := token.Comma | token.RParen | token.RBracket | token.RBrace | token.DoubleRAngle | token.Dot
	noSpaceAfter := token.LParen | token.LBracket | token.LBrace | token.DoubleLAngle
	if cur.Kind.In(noSpaceBefore) || prev.Kind.In(noSpaceAfter) {
		return false
	}
	return true
}

func literalOrText(t token.Token) string {
	switch t.Kind {
	case token.Atom:
		return FormatAtom(t.Literal)
	case token.Str:
		return FormatString(t.Literal)
	default:
		return t.String()
	}
}
