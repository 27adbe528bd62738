package build

import (
	"strings"

	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// itemKind classifies a top-level item for the blank-line policy table in §4.5.
type itemKind int

const (
	kindNewFile itemKind = iota
	kindAttribute
	kindSpec
	kindType
	kindFunction
	kindModuleComment
	kindFunctionComment
	kindList
	kindExprMacro
)

const (
	sepNone = iota
	sepNewline
	sepBlank
)

// condCompileNames are attribute names treated as "the same kind" as one another regardless of
// exact name match, so a run of conditional-compilation directives never gets a blank line
// between its parts.
var condCompileNames = map[string]bool{
	"ifdef": true, "else": true, "endif": true, "if": true, "define": true,
}

// blankTable encodes every row of §4.5's table except attribute-vs-attribute, which
// [blankLines] special-cases by name before consulting it.
var blankTable = map[itemKind]map[itemKind]int{
	kindModuleComment: {
		kindAttribute: sepBlank, kindSpec: sepBlank, kindType: sepBlank, kindFunction: sepBlank,
		kindModuleComment: sepNewline, kindFunctionComment: sepBlank, kindList: sepBlank, kindExprMacro: sepNewline,
	},
	kindFunctionComment: {
		kindAttribute: sepNewline, kindSpec: sepNewline, kindType: sepNewline, kindFunction: sepNewline,
		kindModuleComment: sepBlank, kindFunctionComment: sepNewline, kindList: sepNewline, kindExprMacro: sepNewline,
	},
	kindAttribute: {
		kindSpec: sepBlank, kindType: sepBlank, kindFunction: sepBlank,
		kindModuleComment: sepBlank, kindFunctionComment: sepBlank, kindList: sepBlank, kindExprMacro: sepBlank,
	},
	kindSpec: {
		kindAttribute: sepBlank, kindSpec: sepBlank, kindType: sepBlank, kindFunction: sepNewline,
		kindModuleComment: sepBlank, kindFunctionComment: sepBlank, kindList: sepBlank, kindExprMacro: sepBlank,
	},
	kindType: {
		kindAttribute: sepBlank, kindSpec: sepBlank, kindType: sepNewline, kindFunction: sepBlank,
		kindModuleComment: sepBlank, kindFunctionComment: sepBlank, kindList: sepBlank, kindExprMacro: sepBlank,
	},
}

// blankLines returns how many newlines separate an item of kind cur from the preceding item of
// kind prev, per §4.5's policy table. prevName/curName are attribute names, consulted only when
// both items are attributes.
func blankLines(prev itemKind, prevName string, cur itemKind, curName string) int {
	if prev == kindNewFile {
		return sepNone
	}
	if prev == kindAttribute && cur == kindAttribute {
		if prevName == curName || (condCompileNames[prevName] && condCompileNames[curName]) {
			return sepNewline
		}
		return sepBlank
	}
	if row, ok := blankTable[prev]; ok {
		if v, ok := row[cur]; ok {
			return v
		}
	}
	return sepBlank
}

// Build consumes the whole token stream and produces the root document, one top-level item
// (attribute, spec, type, function, comment, or bare expression) at a time, joined per §4.5's
// blank-line policy.
func Build(tokens []token.Token) (*layout.Doc, error) {
	d := layout.New()
	rest := tokens
	prevKind := kindNewFile
	prevName := ""
	first := true

	for len(rest) > 0 && rest[0].Kind != token.EOF {
		if rest[0].Kind == token.Comment {
			run, after := consumeCommentRun(rest)
			kind := kindFunctionComment
			if strings.HasPrefix(run[0].Literal, "%%") {
				kind = kindModuleComment
			}
			if !first {
				emitSeparator(d, blankLines(prevKind, prevName, kind, ""))
			}
			buildCommentRun(run)(d)
			prevKind, prevName, first, rest = kind, "", false, after
			continue
		}

		consumed, after, err := Until(rest, token.Dot)
		if err != nil {
			return nil, err
		}
		itemToks := consumed[:len(consumed)-1]
		kind, name, fn, err := buildTopLevelItem(itemToks)
		if err != nil {
			return nil, err
		}
		if !first {
			emitSeparator(d, blankLines(prevKind, prevName, kind, name))
		}
		fn(d)
		d.Text(".")
		prevKind, prevName, first, rest = kind, name, false, after
	}
	return d, nil
}

func emitSeparator(d *layout.Doc, n int) {
	switch n {
	case sepNewline:
		d.HardLine()
	case sepBlank:
		d.BlankLine()
	}
}

func consumeCommentRun(toks []token.Token) (run, rest []token.Token) {
	i := 0
	for i < len(toks) && toks[i].Kind == token.Comment {
		i++
	}
	return toks[:i], toks[i:]
}

func buildCommentRun(comments []token.Token) docFn {
	return func(d *layout.Doc) {
		for i, c := range comments {
			d.Text(c.Literal)
			if i < len(comments)-1 {
				d.HardLine()
			}
		}
	}
}

// buildTopLevelItem classifies and builds one dot-terminated top-level item (with the dot
// already stripped), returning a fragment that does not yet include the terminating ".".
func buildTopLevelItem(toks []token.Token) (itemKind, string, docFn, error) {
	if len(toks) == 0 {
		return kindExprMacro, "", func(d *layout.Doc) {}, nil
	}

	if toks[0].Kind == token.Op && toks[0].Literal == "-" && len(toks) > 1 && toks[1].Kind == token.Atom {
		name := toks[1].Literal
		rest := toks[2:]
		switch name {
		case "spec", "callback":
			fn, _, err := buildSpecOrType(name, rest)
			return kindSpec, name, fn, err
		case "type", "opaque":
			fn, _, err := buildSpecOrType(name, rest)
			return kindType, name, fn, err
		default:
			fn, _, err := buildAttribute(name, rest)
			return kindAttribute, name, fn, err
		}
	}

	if toks[0].Kind == token.Atom && len(toks) > 1 && toks[1].Kind == token.LParen {
		fn, _, err := buildFunction(toks)
		return kindFunction, "", fn, err
	}

	if toks[0].Kind == token.LBracket {
		fn, _, err := buildWrappedExpr(toks)
		return kindList, "", fn, err
	}

	fn, _, err := buildWrappedExpr(toks)
	return kindExprMacro, "", fn, err
}

// buildAttribute builds "-Name" optionally followed by a parenthesized argument list. Attributes
// with no arguments at all (-else., -endif.) render with nothing after the name; the ones real
// Erlang source always parenthesizes (module, export, include, define, ifdef, ...) route through
// the same comma-list bracket builder every call/group does.
func buildAttribute(name string, rest []token.Token) (docFn, bool, error) {
	if len(rest) == 0 {
		return textFn("-" + name), false, nil
	}
	inner := rest
	if rest[0].Kind == token.LParen && rest[len(rest)-1].Kind == token.RParen {
		if stripped := RemoveMatching(rest, token.LParen, token.RParen); len(stripped) != len(rest) {
			inner = stripped
		}
	}
	bodyFn, forceBreak, err := buildBracket("(", ")", inner)
	if err != nil {
		return nil, false, err
	}
	out := func(d *layout.Doc) {
		d.Text("-" + name)
		bodyFn(d)
	}
	return out, forceBreak, nil
}

// buildSpecOrType builds "-spec"/"-callback"/"-type"/"-opaque" followed by its clause(s),
// stripping a single redundant outer paren pair first so "-spec f(a) -> b." and
// "-spec (f(a) -> b)." build identically. Per §4.4's multi-clause spec rule, the clause list is
// anchored under the character right after the attribute name with [layout.Doc.Underneath] and
// joined with [layout.Doc.GroupInherit] rather than an independent fit decision.
func buildSpecOrType(name string, rest []token.Token) (docFn, bool, error) {
	body := RemoveMatching(rest, token.LParen, token.RParen)
	clausesFn, forceBreak, err := buildClauses(body)
	if err != nil {
		return nil, false, err
	}
	out := func(d *layout.Doc) {
		d.Text("-" + name + " ")
		d.Underneath(0, func(d *layout.Doc) {
			d.GroupInherit(clausesFn)
		})
	}
	return out, forceBreak, nil
}

// buildFunction builds a function's full clause list (§4.4), which parses exactly like any other
// clause sequence since each clause head is just a local call "Name(Args) [when Guard]".
func buildFunction(toks []token.Token) (docFn, bool, error) {
	clausesFn, forceBreak, err := buildClauses(toks)
	if err != nil {
		return nil, false, err
	}
	out := func(d *layout.Doc) {
		if forceBreak {
			d.ForceBreak(clausesFn)
		} else {
			d.Group(clausesFn)
		}
	}
	return out, forceBreak, nil
}

// buildWrappedExpr builds a bare top-level expression (a raw list/tuple "config" term, or a
// standalone macro call) in its own group.
func buildWrappedExpr(toks []token.Token) (docFn, bool, error) {
	fn, forceBreak, err := buildExpr(toks)
	if err != nil {
		return nil, false, err
	}
	out := func(d *layout.Doc) {
		if forceBreak {
			d.ForceBreak(fn)
		} else {
			d.Group(fn)
		}
	}
	return out, forceBreak, nil
}
