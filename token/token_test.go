package token_test

import (
	"testing"

	"github.com/bsm/erlfmt/token"
	"github.com/teleivo/assertive/assert"
)

func TestLookup(t *testing.T) {
	tests := map[string]struct {
		in       string
		wantKind token.Kind
		wantOK   bool
	}{
		"case keyword":    {"case", token.KwCase, true},
		"receive keyword": {"receive", token.KwReceive, true},
		"andalso keyword": {"andalso", token.KwAndAlso, true},
		"plain atom":      {"foo", 0, false},
		"uppercase":       {"Case", 0, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gotKind, gotOK := token.Lookup(tt.in)
			assert.Equalsf(t, gotOK, tt.wantOK, "Lookup(%q) ok", tt.in)
			if tt.wantOK {
				assert.Equalsf(t, gotKind, tt.wantKind, "Lookup(%q) kind", tt.in)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := map[string]struct {
		in   token.Kind
		want string
	}{
		"arrow":   {token.Arrow, "->"},
		"case":    {token.KwCase, "case"},
		"eof":     {token.EOF, "EOF"},
		"exactEq": {token.ExactEqual, "=:="},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equalsf(t, tt.in.String(), tt.want, "Kind.String()")
		})
	}
}

func TestTokenString(t *testing.T) {
	tests := map[string]struct {
		in   token.Token
		want string
	}{
		"atom literal": {token.Token{Kind: token.Atom, Literal: "foo"}, "foo"},
		"keyword":      {token.Token{Kind: token.KwCase}, "case"},
		"punctuation":  {token.Token{Kind: token.Arrow}, "->"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equalsf(t, tt.in.String(), tt.want, "Token.String()")
		})
	}
}

func TestSameLine(t *testing.T) {
	a := token.Token{Line: 3}
	b := token.Token{Line: 3}
	c := token.Token{Line: 4}
	assert.Truef(t, a.SameLine(b), "expected same line tokens to match")
	assert.Falsef(t, c.SameLine(a), "expected different line tokens not to match")
}
