package nodes

import (
	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/expr"
	"github.com/randalmurphal/pulse/pkg/pulse/text"
)

// Condition evaluates a boolean expression such as
// "GestureLeft == 3 and VelocityMagnitude > 1.5". The identifiers A and B
// read the node's inputs; any other identifier is an avatar parameter name
// or OSC address, resolved against the last received values.
type Condition struct {
	pulse.NodeBase
	A, B *pulse.Input[float32]
	Out  *pulse.Output[bool]

	expr *expr.Expr
}

// NewCondition compiles expression. An empty expression is always false.
func NewCondition(expression string) (*Condition, error) {
	e, err := expr.Compile(expression)
	if err != nil {
		return nil, err
	}
	n := &Condition{expr: e}
	n.Init("logic.condition")
	n.A = pulse.AddInput[float32](&n.NodeBase, "A", 0)
	n.B = pulse.AddInput[float32](&n.NodeBase, "B", 0)
	n.Out = pulse.AddOutput[bool](&n.NodeBase, "Out")
	return n, nil
}

// Expression returns the source of the compiled expression.
func (n *Condition) Expression() string { return n.expr.String() }

// Process evaluates the expression.
func (n *Condition) Process(c *pulse.Context) error {
	lookup, err := inputsThenParameters(c, n.A, n.B)
	if err != nil {
		return err
	}
	ok, err := n.expr.Eval(expr.Lookup(lookup))
	if err != nil {
		return err
	}
	n.Out.Write(c, ok)
	return nil
}

// Format renders a template such as "HR ${HeartRate} bpm". ${A} and ${B}
// read the node's inputs; other placeholders name avatar parameters.
// Placeholders with no value are kept as written.
type Format struct {
	pulse.NodeBase
	A, B *pulse.Input[string]
	Out  *pulse.Output[string]

	tmpl *text.Template
}

// NewFormat parses template.
func NewFormat(template string) (*Format, error) {
	t, err := text.Parse(template)
	if err != nil {
		return nil, err
	}
	n := &Format{tmpl: t}
	n.Init("string.format")
	n.A = pulse.AddInput(&n.NodeBase, "A", "")
	n.B = pulse.AddInput(&n.NodeBase, "B", "")
	n.Out = pulse.AddOutput[string](&n.NodeBase, "Out")
	return n, nil
}

// Template returns the template source.
func (n *Format) Template() string { return n.tmpl.String() }

// Process renders the template.
func (n *Format) Process(c *pulse.Context) error {
	lookup, err := inputsThenParameters(c, n.A, n.B)
	if err != nil {
		return err
	}
	s, err := n.tmpl.Render(text.Lookup(lookup))
	if err != nil {
		return err
	}
	n.Out.Write(c, s)
	return nil
}

// inputsThenParameters reads a and b and returns a resolver serving them as
// "A" and "B", falling back to the traversal's parameter table.
func inputsThenParameters[T any](c *pulse.Context, a, b *pulse.Input[T]) (func(string) (any, bool), error) {
	av, err := a.Read(c)
	if err != nil {
		return nil, err
	}
	bv, err := b.Read(c)
	if err != nil {
		return nil, err
	}
	params := c.Parameters()
	return func(name string) (any, bool) {
		switch name {
		case "A":
			return av, true
		case "B":
			return bv, true
		}
		return params.Get(pulse.ParameterAddress(name))
	}, nil
}
