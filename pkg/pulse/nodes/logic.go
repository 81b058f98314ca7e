package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// BoolOp combines two booleans.
type BoolOp struct {
	pulse.NodeBase
	A, B *pulse.Input[bool]
	Out  *pulse.Output[bool]
	op   func(a, b bool) bool
}

func newBoolOp(kind string, op func(a, b bool) bool) *BoolOp {
	n := &BoolOp{op: op}
	n.Init(kind)
	n.A = pulse.AddInput(&n.NodeBase, "A", false)
	n.B = pulse.AddInput(&n.NodeBase, "B", false)
	n.Out = pulse.AddOutput[bool](&n.NodeBase, "Out")
	return n
}

// NewAnd creates an A && B node.
func NewAnd() *BoolOp { return newBoolOp("logic.and", func(a, b bool) bool { return a && b }) }

// NewOr creates an A || B node.
func NewOr() *BoolOp { return newBoolOp("logic.or", func(a, b bool) bool { return a || b }) }

// Process implements pulse.Node.
func (n *BoolOp) Process(c *pulse.Context) error {
	a, err := n.A.Read(c)
	if err != nil {
		return err
	}
	b, err := n.B.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, n.op(a, b))
	return nil
}

// Not negates its input.
type Not struct {
	pulse.NodeBase
	In  *pulse.Input[bool]
	Out *pulse.Output[bool]
}

// NewNot creates a boolean negation.
func NewNot() *Not {
	n := &Not{}
	n.Init("logic.not")
	n.In = pulse.AddInput(&n.NodeBase, "In", false)
	n.Out = pulse.AddOutput[bool](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Not) Process(c *pulse.Context) error {
	v, err := n.In.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, !v)
	return nil
}

// Equals compares two values of the same type.
type Equals[T comparable] struct {
	pulse.NodeBase
	A, B *pulse.Input[T]
	Out  *pulse.Output[bool]
}

// NewEquals creates an equality test for T.
func NewEquals[T comparable]() *Equals[T] {
	n := &Equals[T]{}
	var zero T
	n.Init(kindOf[T]("logic.equals"))
	n.A = pulse.AddInput(&n.NodeBase, "A", zero)
	n.B = pulse.AddInput(&n.NodeBase, "B", zero)
	n.Out = pulse.AddOutput[bool](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Equals[T]) Process(c *pulse.Context) error {
	a, err := n.A.Read(c)
	if err != nil {
		return err
	}
	b, err := n.B.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, a == b)
	return nil
}

// If continues along True or False depending on Condition.
type If struct {
	pulse.NodeBase
	In          *pulse.FlowInput
	Condition   *pulse.Input[bool]
	True, False *pulse.FlowOutput
}

// NewIf creates a branch on Condition.
func NewIf() *If {
	n := &If{}
	n.Init("flow.if")
	n.In = n.AddFlowInput("In")
	n.Condition = pulse.AddInput(&n.NodeBase, "Condition", false)
	n.True = n.AddFlowOutput("True")
	n.False = n.AddFlowOutput("False")
	return n
}

// Process implements pulse.Node.
func (n *If) Process(c *pulse.Context) error {
	cond, err := n.Condition.Read(c)
	if err != nil {
		return err
	}
	if cond {
		return c.TriggerFlow(n.True)
	}
	return c.TriggerFlow(n.False)
}

// IfWithState compares Condition with its value on the previous pulse and
// continues along one of four branches. The previous value starts as false,
// so a first false reading takes StillFalse.
type IfWithState struct {
	pulse.NodeBase
	In        *pulse.FlowInput
	Condition *pulse.Input[bool]

	BecameTrue  *pulse.FlowOutput
	BecameFalse *pulse.FlowOutput
	StillTrue   *pulse.FlowOutput
	StillFalse  *pulse.FlowOutput

	prev bool
}

// NewIfWithState creates a branch on Condition that remembers the previous value.
func NewIfWithState() *IfWithState {
	n := &IfWithState{}
	n.Init("flow.if_with_state")
	n.In = n.AddFlowInput("In")
	n.Condition = pulse.AddInput(&n.NodeBase, "Condition", false)
	n.BecameTrue = n.AddFlowOutput("BecameTrue")
	n.BecameFalse = n.AddFlowOutput("BecameFalse")
	n.StillTrue = n.AddFlowOutput("StillTrue")
	n.StillFalse = n.AddFlowOutput("StillFalse")
	return n
}

// Process compares Condition with the previous traversal's value and
// continues along the matching transition branch.
func (n *IfWithState) Process(c *pulse.Context) error {
	cur, err := n.Condition.Read(c)
	if err != nil {
		return err
	}
	var prev bool
	n.Guard(func() {
		prev, n.prev = n.prev, cur
	})

	switch {
	case cur && !prev:
		return c.TriggerFlow(n.BecameTrue)
	case !cur && prev:
		return c.TriggerFlow(n.BecameFalse)
	case cur:
		return c.TriggerFlow(n.StillTrue)
	default:
		return c.TriggerFlow(n.StillFalse)
	}
}

// Reset forgets the previous condition.
func (n *IfWithState) Reset() {
	n.Guard(func() { n.prev = false })
}
