// Package layout implements the lazy document algebra the formatter builds its output with.
//
// A [Doc] is a tree of tags describing layout constraints, not formatting decisions: text,
// conditional breaks, indentation, and groups that may render flat or broken depending on
// whether they fit the configured width. The algebra follows Christian Lindig's "Strictly
// Pretty" (2000), with two additions this formatter's builder relies on: [Doc.Underneath] for
// column-anchored indentation (aligning continuation lines under a token rather than adding a
// fixed offset) and [Doc.ForceBreak] together with [Doc.GroupInherit] for propagating a forced
// line break down into a nested group without that group re-deciding whether it fits.
//
// A [Doc] is built by chaining method calls:
//   - [Doc.Text]: literal content, always rendered as-is
//   - [Doc.Break]: a conditional break; renders as its literal when the enclosing group is flat,
//     or as a newline plus indent when the group is broken
//   - [Doc.Nest]: increases indentation by a fixed number of columns for its body
//   - [Doc.Underneath]: anchors indentation for its body to the current column plus an offset
//   - [Doc.Group]: a span that renders flat if it fits in the remaining width, else broken
//   - [Doc.GroupInherit]: a span that never decides for itself; it renders in whatever mode its
//     enclosing group is already in
//   - [Doc.ForceBreak]: a span that always renders broken, regardless of width
//
// Rendering is a single top-down walk, implemented with an explicit stack of (indent, mode,
// iterator) frames built on [iter.Pull2] rather than native recursion, per the design note that
// a formatter should not depend on call-stack depth to process deeply nested source. The fits
// check a [Doc.Group] performs is a bounded walk of its own content only: it stops as soon as it
// exceeds the remaining width (doesn't fit), encounters a hard newline (fits — the line ends
// there regardless), or encounters a forced break (fits — that subtree will render broken on its
// own account).
//
// # Acknowledgments
//
// This package began as a Go port of [allman] by mcyoung, generalized from a DOM-like layout
// engine for DOT attribute lists into the lazy algebra described in Lindig's paper. The tag-array
// representation and the two-phase build-then-render structure are carried over from that port.
//
// [allman]: https://github.com/mcy/strings/tree/main/allman
package layout

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"math"
	"strings"
)

// Format specifies the output representation for rendering a [Doc].
type Format = int

const (
	// Default renders the formatted output as text.
	Default Format = iota
	// Layout renders the document structure using HTML-like syntax, showing every tag including
	// ones that may not appear in the final output. Useful for debugging why a group broke.
	Layout
	// Go renders the document as a runnable Go program that reproduces the same tree. Useful for
	// shrinking a failing layout down to a standalone repro.
	Go
)

var formats = map[string]Format{
	"default": Default,
	"go":      Go,
	"layout":  Layout,
}

var validFormats = [3]string{"default", "go", "layout"}

// NewFormat converts a string to a [Format] constant. Valid values are "default", "layout", and
// "go". Returns an error if the format string is invalid.
func NewFormat(format string) (Format, error) {
	if f, ok := formats[format]; ok {
		return f, nil
	}
	return Default, fmt.Errorf("invalid format string: %q, valid ones are: %q", format, validFormats)
}

// Doc is a document in the layout algebra. Build it by chaining method calls and render it with
// [Doc.Render]. A zero value [Doc] (or one from [New]) is ready to use.
type Doc struct {
	tags []*node
}

// New returns an empty document ready to be built up via its Text/Break/Nest/... methods.
func New() *Doc {
	return &Doc{}
}

// Clone creates a deep copy of the Doc so it can be rendered again independently.
func (d *Doc) Clone() *Doc {
	clone := &Doc{tags: make([]*node, len(d.tags))}
	for i, t := range d.tags {
		clone.tags[i] = &node{tag: t.tag, len: t.len}
	}
	return clone
}

type tagIterator func(yield func(*node, tagIterator) bool)

// All returns an iterator over every tag in the document, depth-first. Used internally by the
// renderer and by [Doc.String] and [Doc.GoString].
func (d *Doc) All() tagIterator {
	return d.newTagIterator(0, len(d.tags))
}

func (d *Doc) newTagIterator(i, j int) tagIterator {
	return func(yield func(*node, tagIterator) bool) {
		i := i
		for i < j {
			if d.tags[i].len == 0 {
				if !yield(d.tags[i], d.newTagIterator(i, i)) {
					return
				}
				i++
			} else {
				if !yield(d.tags[i], d.newTagIterator(i+1, i+1+d.tags[i].len)) {
					return
				}
				i = i + 1 + d.tags[i].len
			}
		}
	}
}

// Text adds literal content to the document. It is always rendered as-is, regardless of the mode
// of any enclosing group.
func (d *Doc) Text(content string) *Doc {
	return d.leaf(&text{content: content})
}

// Break adds a conditional break with the given literal. In a flat group it renders as literal
// verbatim (unless literal contains a newline, in which case it renders as that newline and the
// enclosing indent, even while flat). In a broken group it renders as a newline and the enclosing
// indent; literal "\n\n" renders as a blank line instead of a single one.
//
// [Doc.Line], [Doc.SoftLine], [Doc.HardLine], and [Doc.BlankLine] cover the common literals.
func (d *Doc) Break(literal string) *Doc {
	return d.leaf(&breakTag{literal: literal})
}

// Line renders as a single space when flat, or a newline when broken.
func (d *Doc) Line() *Doc { return d.Break(" ") }

// SoftLine renders as nothing when flat, or a newline when broken.
func (d *Doc) SoftLine() *Doc { return d.Break("") }

// HardLine always renders as a newline, flat or broken.
func (d *Doc) HardLine() *Doc { return d.Break("\n") }

// BlankLine always renders as a blank line, flat or broken.
func (d *Doc) BlankLine() *Doc { return d.Break("\n\n") }

// Nest increases indentation by columns for the content added in body. Indentation is applied at
// the start of each line following a break rendered inside body.
func (d *Doc) Nest(columns int, body func(*Doc)) *Doc {
	return d.branch(&nestTag{columns: columns}, body)
}

// Underneath anchors the indentation for body to the current render column plus offset, rather
// than to a fixed number of columns added to the enclosing indent. It is how the builder aligns
// continuation lines underneath a token, e.g. a guard's clauses under "when", or a type's
// alternatives under "::".
func (d *Doc) Underneath(offset int, body func(*Doc)) *Doc {
	return d.branch(&underneathTag{offset: offset}, body)
}

// Group marks body as a span that renders flat if its content fits in the remaining width, or
// broken across multiple lines otherwise. Each Group decides for itself, independent of whatever
// mode its enclosing group is in.
func (d *Doc) Group(body func(*Doc)) *Doc {
	return d.branch(&group{}, body)
}

// GroupInherit marks body as a span that never measures itself; it renders in whatever mode the
// group enclosing it is already in. Combined with [Doc.ForceBreak], this is how a forced break
// on an enclosing span propagates down into a nested construct without that construct's own fits
// check ever running.
func (d *Doc) GroupInherit(body func(*Doc)) *Doc {
	return d.branch(&group{inherit: true}, body)
}

// ForceBreak marks body as always rendering broken, regardless of whether it would otherwise fit.
func (d *Doc) ForceBreak(body func(*Doc)) *Doc {
	return d.branch(&forceBreak{}, body)
}

func (d *Doc) leaf(t tag) *Doc {
	d.tags = append(d.tags, &node{tag: t})
	return d
}

func (d *Doc) branch(t tag, body func(*Doc)) *Doc {
	i := len(d.tags)
	d.tags = append(d.tags, &node{tag: t})
	body(d)
	d.tags[i].len = len(d.tags) - i - 1
	return d
}

// Render writes the document to w. width is the column the renderer tries to keep lines within;
// it is only consulted for [Default]. [Layout] and [Go] dump the raw tree instead, ignoring
// width and fit decisions entirely.
func (d *Doc) Render(w io.Writer, width int, format Format) error {
	switch format {
	case Layout:
		_, err := fmt.Fprint(w, d)
		return err
	case Go:
		_, err := fmt.Fprintf(w, goTemplate, goString(d, 1))
		return err
	default:
		return render(w, d, width)
	}
}

const goTemplate = `package main

import (
	"os"

	"github.com/bsm/erlfmt/internal/layout"
)

func main() {
	d := %s
	d.Render(os.Stdout, 80, layout.Default)
}
`

// Pretty renders d to a string at the given width. This is the core entry point described by the
// formatter's external API: a document goes in, formatted text comes out. The whole document is
// rendered as the body of one [Doc.Group], so its top level is flat only when it fits.
func Pretty(d *Doc, width int) (string, error) {
	root := &Doc{tags: append([]*node{{tag: &group{}, len: len(d.tags)}}, d.tags...)}
	var buf bytes.Buffer
	if err := render(&buf, root, width); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type mode bool

const (
	modeFlat  mode = false
	modeBreak mode = true
)

// fits reports whether the flat rendering of root completes within avail columns, per the four
// rules of the fits predicate:
//
//  1. an empty stack fits: the content ran out before the budget did.
//  2. a break whose literal is a newline ("\n" or "\n\n") fits immediately: the line ends there
//     regardless of what follows.
//  3. a forced break fits immediately: that subtree renders broken on its own account, so its
//     width can't make this flat rendering overflow.
//  4. anything else consumes its width from avail; going negative means it doesn't fit.
//
// The walk is bounded to root's own content — it never looks past root at what the rest of the
// line, or the document, contains.
func fits(avail int, root tagIterator) bool {
	type frame struct {
		next func() (*node, tagIterator, bool)
		stop func()
	}
	var stack []frame
	push := func(it tagIterator) {
		next, stop := iter.Pull2(iter.Seq2[*node, tagIterator](it))
		stack = append(stack, frame{next, stop})
	}
	push(root)
	defer func() {
		for _, f := range stack {
			f.stop()
		}
	}()

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		n, children, ok := top.next()
		if !ok {
			top.stop()
			stack = stack[:len(stack)-1]
			continue
		}

		switch tag := n.tag.(type) {
		case *text:
			avail -= len(tag.content)
			if avail < 0 {
				return false
			}
		case *breakTag:
			if strings.Contains(tag.literal, "\n") {
				return true
			}
			avail -= len(tag.literal)
			if avail < 0 {
				return false
			}
		case *forceBreak:
			return true
		case *nestTag, *underneathTag, *group:
			push(children)
		}
	}
	return true
}

// render performs the measure, layout, and emit of d in a single top-down walk, using an explicit
// stack of (indent, mode, iterator) frames rather than native recursion so that recursion depth
// never depends on how the source nests — only on how the document itself does, which is bounded.
func render(w io.Writer, d *Doc, maxColumn int) error {
	r := &renderer{w: w}

	type frame struct {
		indent int
		mode   mode
		next   func() (*node, tagIterator, bool)
		stop   func()
	}
	var stack []frame
	push := func(indent int, m mode, it tagIterator) {
		next, stop := iter.Pull2(iter.Seq2[*node, tagIterator](it))
		stack = append(stack, frame{indent, m, next, stop})
	}
	push(0, modeFlat, d.All())
	defer func() {
		for _, f := range stack {
			f.stop()
		}
	}()

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n, children, ok := top.next()
		if !ok {
			top.stop()
			stack = stack[:len(stack)-1]
			continue
		}

		switch tag := n.tag.(type) {
		case *text:
			if err := r.text(tag.content); err != nil {
				return err
			}
		case *breakTag:
			switch {
			case top.mode == modeFlat && !strings.Contains(tag.literal, "\n"):
				if err := r.text(tag.literal); err != nil {
					return err
				}
			case tag.literal == "\n\n":
				r.requestBreak(top.indent, 2)
			default:
				r.requestBreak(top.indent, 1)
			}
		case *nestTag:
			push(safeAdd(top.indent, tag.columns), top.mode, children)
		case *underneathTag:
			push(safeAdd(r.col, tag.offset), top.mode, children)
		case *forceBreak:
			push(top.indent, modeBreak, children)
		case *group:
			m := top.mode
			if !tag.inherit {
				if fits(maxColumn-r.col, children) {
					m = modeFlat
				} else {
					m = modeBreak
				}
			}
			push(top.indent, m, children)
		}
	}

	return r.finish()
}

func safeAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		panic(fmt.Errorf("overflow adding %d to %d", a, b))
	}
	if b < 0 && a < math.MinInt-b {
		panic(fmt.Errorf("underflow adding %d to %d", a, b))
	}

	return a + b
}

// renderer buffers the current line so that trailing whitespace can be trimmed before it's
// written, and defers writing a requested break until it knows whether more content follows, so
// that consecutive breaks merge into at most the largest one requested rather than stacking.
type renderer struct {
	w             io.Writer
	line          []byte
	col           int
	pendingBreaks int
	pendingIndent int
}

func (r *renderer) text(s string) error {
	if s == "" {
		return nil
	}
	if err := r.flushPending(); err != nil {
		return err
	}
	r.line = append(r.line, s...)
	r.col += len(s)
	return nil
}

func (r *renderer) requestBreak(indent, count int) {
	if count > r.pendingBreaks {
		r.pendingBreaks = count
	}
	r.pendingIndent = indent
	r.col = indent
}

func (r *renderer) flushPending() error {
	if r.pendingBreaks == 0 {
		return nil
	}
	if err := r.writeLine(); err != nil {
		return err
	}
	if _, err := io.WriteString(r.w, strings.Repeat("\n", r.pendingBreaks)); err != nil {
		return err
	}
	r.line = r.line[:0]
	if r.pendingIndent > 0 {
		r.line = append(r.line, bytes.Repeat([]byte{' '}, r.pendingIndent)...)
	}
	r.col = r.pendingIndent
	r.pendingBreaks = 0
	r.pendingIndent = 0
	return nil
}

func (r *renderer) writeLine() error {
	trimmed := bytes.TrimRight(r.line, " \t")
	_, err := r.w.Write(trimmed)
	return err
}

// finish flushes whatever's left on the current line and ensures the output ends with exactly
// one trailing newline, per the formatter's output invariants.
func (r *renderer) finish() error {
	if err := r.writeLine(); err != nil {
		return err
	}
	_, err := io.WriteString(r.w, "\n")
	return err
}

// String returns the document structure as HTML-like markup, showing every tag including
// conditional content that may not appear in the final output. Like rendering with [Layout]
// except no fits decisions are made. Useful for debugging why a group broke.
func (d *Doc) String() string {
	var sb strings.Builder
	stringIter(&sb, d.All(), 0)
	return sb.String()
}

func stringIter(w io.Writer, iter tagIterator, indent int) {
	for t, children := range iter {
		switch tag := t.tag.(type) {
		case *group:
			writeIndent(w, indent)
			if tag.inherit {
				fmt.Fprint(w, "<group inherit>\n")
			} else {
				fmt.Fprint(w, "<group>\n")
			}
			stringIter(w, children, indent+1)
			writeIndent(w, indent)
			fmt.Fprint(w, "</group>\n")
		case *forceBreak:
			writeIndent(w, indent)
			fmt.Fprint(w, "<forcebreak>\n")
			stringIter(w, children, indent+1)
			writeIndent(w, indent)
			fmt.Fprint(w, "</forcebreak>\n")
		case *nestTag:
			writeIndent(w, indent)
			fmt.Fprintf(w, "<nest columns=%d>\n", tag.columns)
			stringIter(w, children, indent+1)
			writeIndent(w, indent)
			fmt.Fprint(w, "</nest>\n")
		case *underneathTag:
			writeIndent(w, indent)
			fmt.Fprintf(w, "<underneath offset=%d>\n", tag.offset)
			stringIter(w, children, indent+1)
			writeIndent(w, indent)
			fmt.Fprint(w, "</underneath>\n")
		case *text:
			writeIndent(w, indent)
			fmt.Fprintf(w, "<text content=%q/>\n", tag.content)
		case *breakTag:
			writeIndent(w, indent)
			fmt.Fprintf(w, "<break literal=\"%s\"/>\n", tag.literal)
		}
	}
}

func writeIndent(w io.Writer, columns int) {
	for range columns {
		fmt.Fprint(w, "\t")
	}
}

// GoString returns the document as runnable Go code that reproduces the same tree. Like rendering
// with [Go] except no fits decisions are made. Useful for shrinking a failing layout down to a
// standalone repro.
func (d *Doc) GoString() string {
	return goString(d, 0)
}

func goString(d *Doc, indent int) string {
	var sb strings.Builder
	fmt.Fprint(&sb, "layout.New()\n")
	goStringIter(&sb, d.All(), indent)
	return sb.String()
}

func goStringIter(w io.Writer, iter tagIterator, indent int) {
	first := true
	for t, children := range iter {
		if first {
			writeIndent(w, indent)
			fmt.Fprint(w, "d.\n")
			indent++
		} else {
			fmt.Fprint(w, ".\n")
		}
		writeIndent(w, indent)

		switch tag := t.tag.(type) {
		case *group:
			if tag.inherit {
				fmt.Fprint(w, "GroupInherit(func(d *layout.Doc) {\n")
			} else {
				fmt.Fprint(w, "Group(func(d *layout.Doc) {\n")
			}
			goStringIter(w, children, indent+1)
			fmt.Fprintln(w)
			writeIndent(w, indent)
			fmt.Fprint(w, "})")
		case *forceBreak:
			fmt.Fprint(w, "ForceBreak(func(d *layout.Doc) {\n")
			goStringIter(w, children, indent+1)
			fmt.Fprintln(w)
			writeIndent(w, indent)
			fmt.Fprint(w, "})")
		case *nestTag:
			fmt.Fprintf(w, "Nest(%d, func(d *layout.Doc) {\n", tag.columns)
			goStringIter(w, children, indent+1)
			fmt.Fprintln(w)
			writeIndent(w, indent)
			fmt.Fprint(w, "})")
		case *underneathTag:
			fmt.Fprintf(w, "Underneath(%d, func(d *layout.Doc) {\n", tag.offset)
			goStringIter(w, children, indent+1)
			fmt.Fprintln(w)
			writeIndent(w, indent)
			fmt.Fprint(w, "})")
		case *text:
			fmt.Fprintf(w, "Text(%q)", tag.content)
		case *breakTag:
			fmt.Fprintf(w, "Break(%q)", tag.literal)
		}
		first = false
	}
}

type node struct {
	tag tag
	len int
}

func (t *node) String() string {
	return fmt.Sprintf("Node{tag=%s, len=%d}", t.tag, t.len)
}

type tag interface {
	tag()
}

// group marks a span that renders flat if it fits, or broken if it doesn't, unless inherit is
// set, in which case it never decides and instead renders in whatever mode its enclosing group is
// already in.
type group struct {
	inherit bool
}

func (g *group) tag() {}

func (g *group) String() string {
	if g.inherit {
		return "GroupInherit"
	}
	return "Group"
}

// forceBreak marks a span that always renders broken.
type forceBreak struct{}

func (f *forceBreak) tag() {}

func (f *forceBreak) String() string { return "ForceBreak" }

type nestTag struct {
	columns int
}

func (n *nestTag) tag() {}

func (n *nestTag) String() string { return fmt.Sprintf("Nest(%d)", n.columns) }

type underneathTag struct {
	offset int
}

func (u *underneathTag) tag() {}

func (u *underneathTag) String() string { return fmt.Sprintf("Underneath(%d)", u.offset) }

type text struct {
	content string
}

func (t *text) tag() {}

func (t *text) String() string { return fmt.Sprintf("Text(%q)", t.content) }

// breakTag is a conditional break carrying the literal to render while flat.
type breakTag struct {
	literal string
}

func (b *breakTag) tag() {}

func (b *breakTag) String() string { return fmt.Sprintf("Break(%q)", b.literal) }
