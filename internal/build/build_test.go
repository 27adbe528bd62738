package build

import (
	"strings"
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/internal/lexer"
	"github.com/bsm/erlfmt/token"
)

// formatSrc tokenizes and builds src as a full top-level item sequence, the same path
// FormatTokens uses, and renders it at width.
func formatSrc(t *testing.T, src string, width int) string {
	t.Helper()
	toks, err := lexer.All(strings.NewReader(src))
	require.NoErrorf(t, err, "lexer.All(%q)", src)
	out, err := FormatTokens(toks, width)
	require.NoErrorf(t, err, "FormatTokens(%q)", src)
	return out
}

// formatExprSrc builds src as a single bare expression (no top-level dot terminator), the shape
// a call's argument list or a clause body is built as on its own.
func formatExprSrc(t *testing.T, src string, width int) string {
	t.Helper()
	toks, err := lexer.All(strings.NewReader(src))
	require.NoErrorf(t, err, "lexer.All(%q)", src)
	for len(toks) > 0 && toks[len(toks)-1].Kind == token.EOF {
		toks = toks[:len(toks)-1]
	}
	fn, _, err := buildWrappedExpr(toks)
	require.NoErrorf(t, err, "buildWrappedExpr(%q)", src)
	d := layout.New()
	fn(d)
	out, err := layout.Pretty(d, width)
	require.NoErrorf(t, err, "layout.Pretty(%q)", src)
	return out
}

// TestExpressionScenarios covers scenario 1 of the end-to-end source scenarios: a bare
// call's argument list, built and rendered without a top-level dot terminator.
func TestExpressionScenarios(t *testing.T) {
	tests := map[string]struct {
		src   string
		width int
		want  string
	}{
		"fits on one line": {
			src:   "foo(Arg1, Arg2)",
			width: 100,
			want:  "foo(Arg1, Arg2)\n",
		},
		"breaks one argument per line": {
			src:   "foo(Arg1, Arg2)",
			width: 1,
			want:  "foo(\n    Arg1,\n    Arg2\n)\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := formatExprSrc(t, tt.src, tt.width)
			assert.Equalsf(t, got, tt.want, "formatExprSrc(%q, %d)", tt.src, tt.width)
		})
	}
}

// TestTopLevelScenarios covers scenarios 2, 3, 5 and 6 of the end-to-end source
// scenarios: full top-level items, dot-terminated, run through the same FormatTokens entry point
// cmd/erlfmt drives.
func TestTopLevelScenarios(t *testing.T) {
	tests := map[string]struct {
		src   string
		width int
		want  string
	}{
		"function clause fits on one line": {
			src:   "foo(Arg1, Arg2) -> ok.",
			width: 100,
			want:  "foo(Arg1, Arg2) -> ok.\n",
		},
		"function clause breaks after arrow": {
			src:   "foo(Arg1, Arg2) -> ok.",
			width: 20,
			want:  "foo(Arg1, Arg2) ->\n    ok.\n",
		},
		"function clause breaks both head and arrow": {
			src:   "foo(Arg1, Arg2) -> ok.",
			width: 1,
			want:  "foo(\n    Arg1,\n    Arg2\n) ->\n    ok.\n",
		},
		"multi-expression body fits at moderate width": {
			src:   "foo(Arg1, Arg2) -> Arg3 = Arg1 + Arg2, Arg3.",
			width: 30,
			want:  "foo(Arg1, Arg2) ->\n    Arg3 = Arg1 + Arg2,\n    Arg3.\n",
		},
		"multi-expression body also breaks its assignment": {
			src:   "foo(Arg1, Arg2) -> Arg3 = Arg1 + Arg2, Arg3.",
			width: 20,
			want:  "foo(Arg1, Arg2) ->\n    Arg3 =\n        Arg1 + Arg2,\n    Arg3.\n",
		},
		"module attribute unaffected by export list": {
			src:   "-module(test).\n\n-export([start_link/0, init/1]).",
			width: 100,
			want:  "-module(test).\n\n-export([start_link/0, init/1]).\n",
		},
		"small module attribute forces its own parens open": {
			src:   "-module(test).",
			width: 1,
			want:  "-module(\n    test\n).\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := formatSrc(t, tt.src, tt.width)
			assert.Equalsf(t, got, tt.want, "formatSrc(%q, %d)", tt.src, tt.width)
		})
	}
}

// TestTwoClauseFunction covers scenario 4: a two-clause function always force-breaks between
// clauses, and each clause's own body drops to an indented line when the clause itself doesn't
// fit.
func TestTwoClauseFunction(t *testing.T) {
	src := "foo(Arg1, Arg1) -> error;\nfoo(Arg1, Arg2) -> ok."

	t.Run("clauses stay on consecutive lines at full width", func(t *testing.T) {
		got := formatSrc(t, src, 100)
		assert.Equalsf(t, got, "foo(Arg1, Arg1) -> error;\nfoo(Arg1, Arg2) -> ok.\n", "formatSrc(%q, 100)", src)
	})

	t.Run("narrow width breaks each clause body onto its own line", func(t *testing.T) {
		got := formatSrc(t, src, 20)
		want := "foo(Arg1, Arg1) ->\n    error;\nfoo(Arg1, Arg2) ->\n    ok.\n"
		assert.Equalsf(t, got, want, "formatSrc(%q, 20)", src)
	})
}

// TestExportListWrapping covers the rest of scenario 5: the export list wraps inside its own
// parentheses before the module attribute itself needs to.
func TestExportListWrapping(t *testing.T) {
	src := "-module(test).\n\n-export([start_link/0, init/1])."

	t.Run("wraps inside the export call at moderate width", func(t *testing.T) {
		got := formatSrc(t, src, 30)
		want := "-module(test).\n\n-export(\n    [start_link/0, init/1]\n).\n"
		assert.Equalsf(t, got, want, "formatSrc(%q, 30)", src)
	})

	t.Run("wraps the list itself one arity spec per line at narrow width", func(t *testing.T) {
		got := formatSrc(t, src, 20)
		want := "-module(test).\n\n-export(\n    [\n        start_link/0,\n        init/1\n    ]\n).\n"
		assert.Equalsf(t, got, want, "formatSrc(%q, 20)", src)
	})
}

// TestIdempotence checks the universal idempotence property from the testable-properties list:
// reformatting already-formatted output leaves it unchanged.
func TestIdempotence(t *testing.T) {
	srcs := []string{
		"foo(Arg1, Arg2) -> ok.",
		"-module(test).\n\n-export([start_link/0, init/1]).",
		"foo(Arg1, Arg1) -> error;\nfoo(Arg1, Arg2) -> ok.",
	}

	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			once := formatSrc(t, src, 100)
			twice := formatSrc(t, once, 100)
			assert.Equalsf(t, twice, once, "formatSrc(formatSrc(%q))", src)
		})
	}
}
