package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// Constant outputs a fixed value.
type Constant[T any] struct {
	pulse.NodeBase
	Out   *pulse.Output[T]
	Value T
}

// NewConstant creates a constant node emitting v.
func NewConstant[T any](v T) *Constant[T] {
	n := &Constant[T]{Value: v}
	n.Init(kindOf[T]("value.constant"))
	n.Out = pulse.AddOutput[T](&n.NodeBase, "Out")
	return n
}

// Process writes the constant.
func (n *Constant[T]) Process(c *pulse.Context) error {
	n.Out.Write(c, n.Value)
	return nil
}

// Vector3Compose builds a vector from its components.
type Vector3Compose struct {
	pulse.NodeBase
	X, Y, Z *pulse.Input[float32]
	Out     *pulse.Output[pulse.Vector3]
}

// NewVector3Compose creates a node building a Vector3 from X, Y and Z.
func NewVector3Compose() *Vector3Compose {
	n := &Vector3Compose{}
	n.Init("value.vector3.compose")
	n.X = pulse.AddInput[float32](&n.NodeBase, "X", 0)
	n.Y = pulse.AddInput[float32](&n.NodeBase, "Y", 0)
	n.Z = pulse.AddInput[float32](&n.NodeBase, "Z", 0)
	n.Out = pulse.AddOutput[pulse.Vector3](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Vector3Compose) Process(c *pulse.Context) error {
	x, err := n.X.Read(c)
	if err != nil {
		return err
	}
	y, err := n.Y.Read(c)
	if err != nil {
		return err
	}
	z, err := n.Z.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, pulse.Vector3{X: x, Y: y, Z: z})
	return nil
}

// Vector3Decompose splits a vector into its components and length.
type Vector3Decompose struct {
	pulse.NodeBase
	In      *pulse.Input[pulse.Vector3]
	X, Y, Z *pulse.Output[float32]
	Length  *pulse.Output[float32]
}

// NewVector3Decompose creates a node splitting a Vector3 into components.
func NewVector3Decompose() *Vector3Decompose {
	n := &Vector3Decompose{}
	n.Init("value.vector3.decompose")
	n.In = pulse.AddInput(&n.NodeBase, "In", pulse.Vector3{})
	n.X = pulse.AddOutput[float32](&n.NodeBase, "X")
	n.Y = pulse.AddOutput[float32](&n.NodeBase, "Y")
	n.Z = pulse.AddOutput[float32](&n.NodeBase, "Z")
	n.Length = pulse.AddOutput[float32](&n.NodeBase, "Length")
	return n
}

// Process implements pulse.Node.
func (n *Vector3Decompose) Process(c *pulse.Context) error {
	v, err := n.In.Read(c)
	if err != nil {
		return err
	}
	n.X.Write(c, v.X)
	n.Y.Write(c, v.Y)
	n.Z.Write(c, v.Z)
	n.Length.Write(c, v.Length())
	return nil
}
