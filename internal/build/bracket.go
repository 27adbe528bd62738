package build

import (
	"github.com/bsm/erlfmt/internal/layout"
	"github.com/bsm/erlfmt/token"
)

// buildBracket builds "open inner close" as a breakable group: inner is the tokens strictly
// between the two bracket tokens (the caller has already stripped those). Elements are split on
// top-level commas, each rendered as its own group, and the whole thing breaks one element per
// line, indented, when it doesn't fit flat or when any element force-broke.
func buildBracket(openText, closeText string, inner []token.Token) (docFn, bool, error) {
	items, _, err := splitTopLevel(inner, token.Comma)
	if err != nil {
		return nil, false, err
	}
	if len(items) == 1 && len(items[0]) == 0 {
		items = nil
	}

	listFn, forceBreak, err := buildItemList(items)
	if err != nil {
		return nil, false, err
	}

	body := func(d *layout.Doc) {
		d.Text(openText)
		d.Nest(indentWidth, func(d *layout.Doc) {
			d.SoftLine()
			listFn(d)
		})
		d.SoftLine()
		d.Text(closeText)
	}

	out := func(d *layout.Doc) {
		if forceBreak {
			d.ForceBreak(body)
		} else {
			d.Group(body)
		}
	}
	return out, forceBreak, nil
}

// buildItemList builds a comma-separated sequence of already-split expression token slices, each
// as its own group (or force-break) so a single oversized element doesn't force its siblings to
// break too.
func buildItemList(items [][]token.Token) (docFn, bool, error) {
	if len(items) == 0 {
		return func(d *layout.Doc) {}, false, nil
	}

	var fns []docFn
	var forces []bool
	forceBreak := false
	for _, it := range items {
		fn, fb, err := buildExpr(it)
		if err != nil {
			return nil, false, err
		}
		fns = append(fns, fn)
		forces = append(forces, fb)
		forceBreak = forceBreak || fb
	}

	out := func(d *layout.Doc) {
		for i, fn := range fns {
			if forces[i] {
				d.ForceBreak(fn)
			} else {
				d.Group(fn)
			}
			if i < len(fns)-1 {
				d.Text(",")
				d.Line()
			}
		}
	}
	return out, forceBreak, nil
}
