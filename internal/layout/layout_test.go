package layout_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/bsm/erlfmt/internal/layout"
	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
)

func TestLayout(t *testing.T) {
	tests := map[string]struct {
		in          *layout.Doc
		width       int
		wantDefault string
		wantLayout  string
	}{
		"EmptyDoc": {
			in:          layout.New(),
			width:       80,
			wantDefault: "\n",
			wantLayout:  "",
		},
		"EmptyGroup": {
			in:          layout.New().Group(func(d *layout.Doc) {}),
			width:       80,
			wantDefault: "\n",
			wantLayout: `<group>
</group>
`,
		},
		"EmptyNest": {
			in:          layout.New().Nest(4, func(d *layout.Doc) {}),
			width:       80,
			wantDefault: "\n",
			wantLayout: `<nest columns=4>
</nest>
`,
		},
		"GroupFitsOnOneLine": {
			in: layout.New().Group(func(d *layout.Doc) {
				d.Text("01234").Line().Text("56789")
			}),
			width:       20,
			wantDefault: "01234 56789\n",
			wantLayout: `<group>
	<text content="01234"/>
	<break literal=" "/>
	<text content="56789"/>
</group>
`,
		},
		"GroupBreaksWhenItDoesNotFit": {
			in: layout.New().Group(func(d *layout.Doc) {
				d.Text("01234").Line().Text("56789")
			}),
			width:       10,
			wantDefault: "01234\n56789\n",
			wantLayout: `<group>
	<text content="01234"/>
	<break literal=" "/>
	<text content="56789"/>
</group>
`,
		},
		"NestIndentsContinuationLines": {
			in: layout.New().Group(func(d *layout.Doc) {
				d.Text("list(").Nest(4, func(d *layout.Doc) {
					d.SoftLine().Text("1,")
					d.Line()
					d.Text("2")
				}).SoftLine().Text(")")
			}),
			width:       5,
			wantDefault: "list(\n    1,\n    2\n)\n",
			wantLayout: `<group>
	<text content="list("/>
	<nest columns=4>
		<break literal=""/>
		<text content="1,"/>
		<break literal=" "/>
		<text content="2"/>
	</nest>
	<break literal=""/>
	<text content=")"/>
</group>
`,
		},
		"UnderneathAnchorsToCurrentColumn": {
			in: layout.New().Text("foo(X) ").Underneath(0, func(d *layout.Doc) {
				d.Text("when X > 0").HardLine().Text("andalso X < 10")
			}),
			width:       80,
			wantDefault: "foo(X) when X > 0\n       andalso X < 10\n",
			wantLayout: `<text content="foo(X) "/>
<underneath offset=0>
	<text content="when X > 0"/>
	<break literal="
"/>
	<text content="andalso X < 10"/>
</underneath>
`,
		},
		"HardLineAlwaysBreaksEvenWhenFlat": {
			in: layout.New().Group(func(d *layout.Doc) {
				d.Text("a").HardLine().Text("b")
			}),
			width:       80,
			wantDefault: "a\nb\n",
			wantLayout: `<group>
	<text content="a"/>
	<break literal="
"/>
	<text content="b"/>
</group>
`,
		},
		"BlankLineRendersAsEmptyLine": {
			in:          layout.New().Text("a").BlankLine().Text("b"),
			width:       80,
			wantDefault: "a\n\nb\n",
			wantLayout: `<text content="a"/>
<break literal="

"/>
<text content="b"/>
`,
		},
		"ForceBreakBreaksRegardlessOfWidth": {
			in: layout.New().Group(func(d *layout.Doc) {
				d.ForceBreak(func(d *layout.Doc) {
					d.Text("a").Line().Text("b")
				})
			}),
			width:       80,
			wantDefault: "a\nb\n",
			wantLayout: `<group>
	<forcebreak>
		<text content="a"/>
		<break literal=" "/>
		<text content="b"/>
	</forcebreak>
</group>
`,
		},
		"ForceBreakDoesNotItselfBreakTheEnclosingGroupsFitCheck": {
			// the forced inner break short-circuits the outer group's own fits walk, so the
			// outer group still renders flat for anything that comes after it
			in: layout.New().Group(func(d *layout.Doc) {
				d.ForceBreak(func(d *layout.Doc) {
					d.Text("a")
				})
				d.Line()
				d.Text("tail")
			}),
			width:       80,
			wantDefault: "a tail\n",
			wantLayout: `<group>
	<forcebreak>
		<text content="a"/>
	</forcebreak>
	<break literal=" "/>
	<text content="tail"/>
</group>
`,
		},
		"GroupInheritPropagatesForcedBreakToDescendants": {
			// ForceBreak wraps a GroupInherit group; the inherit group adopts break mode instead
			// of measuring its own fit, so its own Line() renders broken too
			in: layout.New().ForceBreak(func(d *layout.Doc) {
				d.GroupInherit(func(d *layout.Doc) {
					d.Text("a").Line().Text("b")
				})
			}),
			width:       80,
			wantDefault: "a\nb\n",
			wantLayout: `<forcebreak>
	<group inherit>
		<text content="a"/>
		<break literal=" "/>
		<text content="b"/>
	</group>
</forcebreak>
`,
		},
		"NestedGroupStillDecidesForItselfInsideABrokenEnclosingGroup": {
			// a plain (non-inherit) Group always performs its own fits check, even nested
			// inside an already-broken enclosing group
			in: layout.New().Group(func(d *layout.Doc) {
				d.Text("outer-open").Line().Group(func(d *layout.Doc) {
					d.Text("a").Line().Text("b")
				}).Line().Text("very-long-trailing-outer-content")
			}),
			width:       10,
			wantDefault: "outer-open\na b\nvery-long-trailing-outer-content\n",
			wantLayout: `<group>
	<text content="outer-open"/>
	<break literal=" "/>
	<group>
		<text content="a"/>
		<break literal=" "/>
		<text content="b"/>
	</group>
	<break literal=" "/>
	<text content="very-long-trailing-outer-content"/>
</group>
`,
		},
		"TrailingWhitespaceIsTrimmedFromEveryLine": {
			in:          layout.New().Text("hello").Line().HardLine().Text("world"),
			width:       80,
			wantDefault: "hello\nworld\n",
			wantLayout: `<text content="hello"/>
<break literal=" "/>
<break literal="
"/>
<text content="world"/>
`,
		},
		"MergeConsecutiveBreaksToTheWidest": {
			in:          layout.New().Text("a").HardLine().BlankLine().Text("b"),
			width:       80,
			wantDefault: "a\n\nb\n",
			wantLayout: `<text content="a"/>
<break literal="
"/>
<break literal="

"/>
<text content="b"/>
`,
		},
		"LindigIfThenElseFitsFlat": {
			in:      lindigIfThenElse(),
			width:   80,
			wantDefault: "if a then b else c\n",
		},
		"LindigIfThenElseBreaksWhenNarrow": {
			in:      lindigIfThenElse(),
			width:   10,
			wantDefault: "if a\nthen b\nelse c\n",
		},
	}

	t.Run("RenderDefault", func(t *testing.T) {
		for name, tc := range tests {
			t.Run(name, func(t *testing.T) {
				var got strings.Builder
				err := tc.in.Clone().Render(&got, tc.width, layout.Default)
				require.NoErrorf(t, err, "failed to render default format")

				assert.EqualValues(t, got.String(), tc.wantDefault)
			})
		}
	})
	t.Run("RenderLayout", func(t *testing.T) {
		for name, tc := range tests {
			if tc.wantLayout == "" {
				continue
			}
			t.Run(name, func(t *testing.T) {
				var got strings.Builder
				err := tc.in.Clone().Render(&got, tc.width, layout.Layout)
				require.NoErrorf(t, err, "failed to render layout format")

				assert.EqualValues(t, got.String(), tc.wantLayout)
			})
		}
	})
	t.Run("RenderGo", func(t *testing.T) {
		for name, tc := range tests {
			if tc.wantLayout == "" {
				continue
			}
			t.Run(name, func(t *testing.T) {
				// GoStringer should produce valid Go code
				dir := t.TempDir()
				f, err := os.Create(dir + "/main.go")
				require.NoError(t, err)
				err = tc.in.Clone().Render(f, tc.width, layout.Go)
				require.NoErrorf(t, err, "failed to render Go format")
				cmd := exec.CommandContext(t.Context(), "go", "run", f.Name())
				got, err := cmd.Output()
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					require.NoErrorf(t, err, "failed to execute Go code generated using GoStringer: %s", exitErr.Stderr)
				} else {
					require.NoErrorf(t, err, "failed to execute Go code generated using GoStringer")
				}

				// GoStringer should render to the same output as its source document, at the
				// width of 80 the generated program renders at
				var sb strings.Builder
				err = tc.in.Clone().Render(&sb, 80, layout.Default)
				require.NoError(t, err)
				want := sb.String()

				assert.EqualValues(t, string(got), want)
			})
		}
	})
}

// lindigIfThenElse builds Lindig's "Strictly Pretty" example document: an if/then/else expression
// whose three clauses each become their own group, so narrowing the width breaks them one at a
// time from the inside out.
func lindigIfThenElse() *layout.Doc {
	d := layout.New()
	d.Group(func(d *layout.Doc) {
		d.Group(func(d *layout.Doc) {
			d.Text("if").Line().Text("a")
		})
		d.Line()
		d.Group(func(d *layout.Doc) {
			d.Text("then").Line().Text("b")
		})
		d.Line()
		d.Group(func(d *layout.Doc) {
			d.Text("else").Line().Text("c")
		})
	})
	return d
}
