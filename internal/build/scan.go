package build

import "github.com/bsm/erlfmt/token"

// This file holds the bracket- and keyword-aware token scanning utilities the rest of the builder
// is written on top of. None of them lex or parse; they only slice an already-tokenized stream.
// Every helper tracks an implicit stack of "what has to close before I'm back at top level": an
// open bracket pushes its partner, an end-terminated keyword (case/if/receive/try/begin, and fun
// when it opens a block, see [token.Token.OpensBlock]) pushes [token.KwEnd]. Scanning never treats
// a token as a terminator candidate unless the stack is back to the depth it started at.

// eof returns a zero-position EOF token used to report "ran out of input" errors when the caller
// has no real token left to blame.
func eof(toks []token.Token) token.Token {
	if len(toks) > 0 {
		return token.Token{Kind: token.EOF, Line: toks[len(toks)-1].Line}
	}
	return token.Token{Kind: token.EOF}
}

// opens reports whether tok, given the tokens immediately following it, pushes a closer kind onto
// the implicit scan stack, and what that closer is.
func opens(tok token.Token, rest []token.Token) (closer token.Kind, push bool) {
	if c, ok := token.ClosesFor(tok.Kind); ok {
		return c, true
	}
	if tok.OpensBlock(rest) {
		return token.KwEnd, true
	}
	return 0, false
}

// closes reports whether tok is a token kind that ever closes something (a close bracket or
// "end"). It does not by itself validate that it matches the stack top.
func closes(k token.Kind) bool {
	return k.In(token.RParen | token.RBrace | token.RBracket | token.DoubleRAngle | token.KwEnd)
}

// Until slices toks up to and including a top-level occurrence of end. It returns the slice
// including the terminator as consumed, and everything after it as rest. Brackets and
// end-terminated keywords nested inside are tracked so a terminator appearing inside them doesn't
// end the scan early. When toks starts with the opener of end (a bracket, or a block keyword for
// end), the closer that brings the scan back to top level is the terminator.
func Until(toks []token.Token, end token.Kind) (consumed, rest []token.Token, err error) {
	var stack []token.Kind
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if len(stack) == 0 && tok.Kind == end {
			return toks[:i+1], toks[i+1:], nil
		}
		if closes(tok.Kind) {
			if len(stack) == 0 || stack[len(stack)-1] != tok.Kind {
				return nil, nil, errMalformed(tok, "unexpected %s while scanning for %s", tok.Kind, end)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 && tok.Kind == end {
				return toks[:i+1], toks[i+1:], nil
			}
			continue
		}
		if closer, push := opens(tok, toks[i+1:]); push {
			stack = append(stack, closer)
		}
	}
	return nil, nil, errUnexpectedEOF(eof(toks), "reached end of input while scanning for %s", end)
}

// of, catch, after, and end are the terminators [UntilOf] stops at.
var ofTerminators = token.KwOf | token.KwCatch | token.KwAfter | token.KwEnd

// UntilOf scans the body of a try (or a case's subject) for the first top-level occurrence of
// "of", "catch", "after", or "end" — whichever comes first — without consuming it, so the caller
// can tell whether an "of" clause is present at all. Nested case/try blocks push their own
// [token.KwEnd] and so their own of/catch/after never appears at top level here.
func UntilOf(toks []token.Token) (consumed []token.Token, term token.Token, rest []token.Token, err error) {
	var stack []token.Kind
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if len(stack) == 0 && tok.Kind.In(ofTerminators) {
			return toks[:i], tok, toks[i+1:], nil
		}
		if closes(tok.Kind) {
			if len(stack) == 0 || stack[len(stack)-1] != tok.Kind {
				return nil, token.Token{}, nil, errMalformed(tok, "unexpected %s while scanning try/case body", tok.Kind)
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if closer, push := opens(tok, toks[i+1:]); push {
			stack = append(stack, closer)
		}
	}
	return nil, token.Token{}, nil, errUnexpectedEOF(eof(toks), "reached end of input scanning for of/catch/after/end")
}

// UntilAny finds the first top-level token in toks whose kind is a member of set, e.g. the next
// andalso/orelse/| in a boolean or alternative chain. It returns the tokens before the match, the
// match itself, and everything after it. found is false if no top-level member of set appears
// before toks runs out (brackets and end-terminated keywords are tracked the same as [Until]).
func UntilAny(toks []token.Token, set token.Set) (prefix []token.Token, match token.Token, rest []token.Token, found bool) {
	var stack []token.Kind
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if len(stack) == 0 && tok.Kind.In(set) {
			return toks[:i], tok, toks[i+1:], true
		}
		if closes(tok.Kind) {
			if len(stack) == 0 || stack[len(stack)-1] != tok.Kind {
				return toks, token.Token{}, nil, false
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if closer, push := opens(tok, toks[i+1:]); push {
			stack = append(stack, closer)
		}
	}
	return toks, token.Token{}, nil, false
}

// RemoveMatching drops an outer bracket pair from toks if toks starts with open and the matching
// close (tracking nested pairs so an inner one isn't mistaken for it) is the very last token.
// Inner matched pairs are left untouched. Used to strip the parentheses some attributes and every
// -spec/-type body may or may not be wrapped in, so both spellings build identically.
func RemoveMatching(toks []token.Token, open, close token.Kind) []token.Token {
	if len(toks) < 2 || toks[0].Kind != open {
		return toks
	}
	depth := 0
	for i, tok := range toks {
		switch tok.Kind {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				if i == len(toks)-1 {
					return toks[1 : len(toks)-1]
				}
				return toks
			}
		}
	}
	return toks
}

// inGuardState tracks whether [EndOfExpr] is currently scanning inside a "when" guard, where a
// comma or semicolon does not terminate the expression the way it does everywhere else.
type inGuardState int

const (
	notInGuard inGuardState = iota
	inGuard
)

// EndOfExpr slices one expression out of toks. At top level, ",", ";", and "." end it; inside a
// "when" guard those are ignored until an "->" (the guard itself ends) or, if a "::" appears
// first, the construct is a typed attribute whose guard ends at the next ";" or ".". The
// terminator token is returned separately so the caller can see which of the three it was (it
// decides whether another clause/expression follows).
func EndOfExpr(toks []token.Token, guard inGuardState) (expr []token.Token, term token.Token, rest []token.Token, err error) {
	var stack []token.Kind
	sawWhen := false
	sawColonColon := false
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if len(stack) == 0 {
			switch tok.Kind {
			case token.KwWhen:
				sawWhen = true
			case token.ColonColon:
				if sawWhen || guard == inGuard {
					sawColonColon = true
				}
			case token.Arrow:
				if sawWhen || guard == inGuard {
					return toks[:i], tok, toks[i+1:], nil
				}
			case token.Comma, token.Semicolon:
				if (sawWhen || guard == inGuard) && !sawColonColon {
					continue
				}
				return toks[:i], tok, toks[i+1:], nil
			case token.Dot:
				return toks[:i], tok, toks[i+1:], nil
			}
		}
		if closes(tok.Kind) {
			if len(stack) == 0 || stack[len(stack)-1] != tok.Kind {
				return nil, token.Token{}, nil, errMalformed(tok, "unexpected %s while scanning expression", tok.Kind)
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if closer, push := opens(tok, toks[i+1:]); push {
			stack = append(stack, closer)
		}
	}
	if len(toks) == 0 {
		return nil, token.Token{}, nil, errUnexpectedEOF(eof(toks), "reached end of input scanning for an expression")
	}
	// Tolerate a final expression with no trailing terminator (e.g. a macro body fragment).
	return toks, token.Token{Kind: token.EOF, Line: toks[len(toks)-1].Line}, nil, nil
}
