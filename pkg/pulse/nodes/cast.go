package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// Cast converts its input with pulse.Convert. A value that cannot be
// represented fails the read with a *pulse.CastError.
type Cast[TFrom, TTo any] struct {
	pulse.NodeBase
	In  *pulse.Input[TFrom]
	Out *pulse.Output[TTo]
}

// NewCast creates a checked conversion from TFrom to TTo.
func NewCast[TFrom, TTo any]() *Cast[TFrom, TTo] {
	n := &Cast[TFrom, TTo]{}
	var zero TFrom
	n.Init("cast." + TypeName[TFrom]() + "." + TypeName[TTo]())
	n.In = pulse.AddInput(&n.NodeBase, "In", zero)
	n.Out = pulse.AddOutput[TTo](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Cast[TFrom, TTo]) Process(c *pulse.Context) error {
	v, err := n.In.Read(c)
	if err != nil {
		return err
	}
	out, err := pulse.Convert[TTo](v)
	if err != nil {
		return err
	}
	n.Out.Write(c, out)
	return nil
}
