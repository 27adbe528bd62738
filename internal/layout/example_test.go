package layout_test

import (
	"fmt"
	"os"

	"github.com/bsm/erlfmt/internal/layout"
)

// Example demonstrates a group that breaks once its flat form no longer fits, the same shape
// teleivo/dot's own example documents a DOT attribute list with.
func Example() {
	d := layout.New()
	d.Text("#{")
	d.Group(func(d *layout.Doc) {
		d.Nest(2, func(d *layout.Doc) {
			d.SoftLine()
			d.Text("name => \"Alice\",")
			d.Line()
			d.Text("age => 30,")
			d.Line()
			d.Text("email => \"alice@example.com\"")
		})
		d.SoftLine()
	})
	d.Text("}")
	_ = d.Render(os.Stdout, 20, layout.Default)
	fmt.Println()
	// Output:
	// #{
	//   name => "Alice",
	//   age => 30,
	//   email => "alice@example.com"
	// }
}

// binOp builds "lhs op rhs" as a group that, when it doesn't fit, breaks after the operator and
// nests the right-hand side two columns deeper.
func binOp(lhs, op, rhs string) func(*layout.Doc) {
	return func(d *layout.Doc) {
		d.Group(func(d *layout.Doc) {
			d.Text(lhs + " " + op)
			d.Nest(2, func(d *layout.Doc) {
				d.Line()
				d.Text(rhs)
			})
		})
	}
}

// clause builds "kw expr" as a group that, when it doesn't fit, breaks right after kw and nests
// expr two columns deeper, the same shape every one of the three if/then/else parts uses.
func clause(kw string, expr func(*layout.Doc)) func(*layout.Doc) {
	return func(d *layout.Doc) {
		d.Group(func(d *layout.Doc) {
			d.Text(kw)
			d.Nest(2, func(d *layout.Doc) {
				d.Line()
				expr(d)
			})
		})
	}
}

// ifThenElse reproduces Lindig's "if a == b then a << 2 else a + b" example from "Strictly
// Pretty", one group per clause joined by breakable spaces so each clause can fit independently
// of its neighbors.
func ifThenElse() *layout.Doc {
	d := layout.New()
	d.Group(func(d *layout.Doc) {
		clause("if", binOp("a", "==", "b"))(d)
		d.Line()
		clause("then", binOp("a", "<<", "2"))(d)
		d.Line()
		clause("else", binOp("a", "+", "b"))(d)
	})
	return d
}

func Example_ifThenElse_width100() {
	_ = ifThenElse().Render(os.Stdout, 100, layout.Default)
	// Output:
	// if a == b then a << 2 else a + b
}

func Example_ifThenElse_width32() {
	_ = ifThenElse().Render(os.Stdout, 32, layout.Default)
	// Output:
	// if a == b then a << 2 else a + b
}

func Example_ifThenElse_width15() {
	_ = ifThenElse().Render(os.Stdout, 15, layout.Default)
	// Output:
	// if a == b
	// then a << 2
	// else a + b
}

func Example_ifThenElse_width10() {
	_ = ifThenElse().Render(os.Stdout, 10, layout.Default)
	// Output:
	// if a == b
	// then
	//   a << 2
	// else a + b
}

func Example_ifThenElse_width8() {
	_ = ifThenElse().Render(os.Stdout, 8, layout.Default)
	// Output:
	// if
	//   a == b
	// then
	//   a << 2
	// else
	//   a + b
}

func Example_ifThenElse_width7() {
	_ = ifThenElse().Render(os.Stdout, 7, layout.Default)
	// Output:
	// if
	//   a ==
	//     b
	// then
	//   a <<
	//     2
	// else
	//   a + b
}

func Example_ifThenElse_width6() {
	_ = ifThenElse().Render(os.Stdout, 6, layout.Default)
	// Output:
	// if
	//   a ==
	//     b
	// then
	//   a <<
	//     2
	// else
	//   a +
	//     b
}
