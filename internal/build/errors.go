package build

import (
	"fmt"

	"github.com/bsm/erlfmt/token"
)

// ErrorKind classifies why the builder rejected a token stream. All three kinds are fatal to the
// file being built: the builder never recovers locally and never emits a partial document.
type ErrorKind int

const (
	// MalformedTokenStream means a scanning helper underflowed its bracket/keyword stack, or hit
	// the end of input with brackets or end-terminated keywords still open.
	MalformedTokenStream ErrorKind = iota
	// UnexpectedEOF means the builder ran out of tokens in the middle of a construct it had
	// already committed to (e.g. a clause head with no "->").
	UnexpectedEOF
	// UnknownToken means the builder reached a token kind it has no shape for.
	UnknownToken
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedTokenStream:
		return "malformed_token_stream"
	case UnexpectedEOF:
		return "unexpected_end_of_input"
	case UnknownToken:
		return "unknown_token"
	default:
		return "unknown_error_kind"
	}
}

// Error is the builder's error type. It carries the offending token's position so a caller can
// point a human at the source line, the same way the teacher's scanner attaches a position to its
// lexical errors.
type Error struct {
	Kind  ErrorKind
	Token token.Token
	Msg   string
}

func (e *Error) Error() string {
	if e.Token.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Token.Line, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func errMalformed(tok token.Token, format string, args ...any) error {
	return &Error{Kind: MalformedTokenStream, Token: tok, Msg: fmt.Sprintf(format, args...)}
}

func errUnexpectedEOF(tok token.Token, format string, args ...any) error {
	return &Error{Kind: UnexpectedEOF, Token: tok, Msg: fmt.Sprintf(format, args...)}
}

func errUnknown(tok token.Token, format string, args ...any) error {
	return &Error{Kind: UnknownToken, Token: tok, Msg: fmt.Sprintf(format, args...)}
}
