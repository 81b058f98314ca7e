package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// Binary applies an arithmetic operator to two inputs.
type Binary[T pulse.Number] struct {
	pulse.NodeBase
	A, B *pulse.Input[T]
	Out  *pulse.Output[T]
	op   func(a, b T) T
}

func newBinary[T pulse.Number](name string, op func(a, b T) T) *Binary[T] {
	n := &Binary[T]{op: op}
	n.Init(kindOf[T]("math." + name))
	n.A = pulse.AddInput[T](&n.NodeBase, "A", 0)
	n.B = pulse.AddInput[T](&n.NodeBase, "B", 0)
	n.Out = pulse.AddOutput[T](&n.NodeBase, "Out")
	return n
}

// NewAdd creates an A+B node.
func NewAdd[T pulse.Number]() *Binary[T] {
	return newBinary("add", func(a, b T) T { return a + b })
}

// NewSubtract creates an A-B node.
func NewSubtract[T pulse.Number]() *Binary[T] {
	return newBinary("subtract", func(a, b T) T { return a - b })
}

// NewMultiply creates an A*B node.
func NewMultiply[T pulse.Number]() *Binary[T] {
	return newBinary("multiply", func(a, b T) T { return a * b })
}

// Process applies the operation to A and B.
func (n *Binary[T]) Process(c *pulse.Context) error {
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

// Clamp limits Value to [Min, Max].
type Clamp[T pulse.Number] struct {
	pulse.NodeBase
	Value, Min, Max *pulse.Input[T]
	Out             *pulse.Output[T]
}

// NewClamp creates a clamp with the range [0, 1].
func NewClamp[T pulse.Number]() *Clamp[T] {
	n := &Clamp[T]{}
	n.Init(kindOf[T]("math.clamp"))
	n.Value = pulse.AddInput[T](&n.NodeBase, "Value", 0)
	n.Min = pulse.AddInput[T](&n.NodeBase, "Min", 0)
	n.Max = pulse.AddInput[T](&n.NodeBase, "Max", 1)
	n.Out = pulse.AddOutput[T](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Clamp[T]) Process(c *pulse.Context) error {
	v, err := n.Value.Read(c)
	if err != nil {
		return err
	}
	lo, err := n.Min.Read(c)
	if err != nil {
		return err
	}
	hi, err := n.Max.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, min(max(v, lo), hi))
	return nil
}

// Lerp interpolates linearly between A and B by T. T is not clamped.
type Lerp struct {
	pulse.NodeBase
	A, B, T *pulse.Input[float32]
	Out     *pulse.Output[float32]
}

// NewLerp creates a linear interpolation between A and B by T.
func NewLerp() *Lerp {
	n := &Lerp{}
	n.Init("math.lerp")
	n.A = pulse.AddInput[float32](&n.NodeBase, "A", 0)
	n.B = pulse.AddInput[float32](&n.NodeBase, "B", 1)
	n.T = pulse.AddInput[float32](&n.NodeBase, "T", 0)
	n.Out = pulse.AddOutput[float32](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Lerp) Process(c *pulse.Context) error {
	a, err := n.A.Read(c)
	if err != nil {
		return err
	}
	b, err := n.B.Read(c)
	if err != nil {
		return err
	}
	t, err := n.T.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, lerp(a, b, t))
	return nil
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// RemapValue maps v from [fromMin, fromMax] onto [toMin, toMax] without
// clamping. A degenerate source range maps everything to toMin.
func RemapValue(v, fromMin, fromMax, toMin, toMax float32) float32 {
	if fromMax == fromMin {
		return toMin
	}
	return toMin + (v-fromMin)*(toMax-toMin)/(fromMax-fromMin)
}

// Remap maps Value from one range onto another.
type Remap struct {
	pulse.NodeBase
	Value            *pulse.Input[float32]
	FromMin, FromMax *pulse.Input[float32]
	ToMin, ToMax     *pulse.Input[float32]
	Out              *pulse.Output[float32]
}

// NewRemap creates a remap from [0, 1] onto [0, 1]; adjust the range inputs.
func NewRemap() *Remap {
	n := &Remap{}
	n.Init("math.remap")
	n.Value = pulse.AddInput[float32](&n.NodeBase, "Value", 0)
	n.FromMin = pulse.AddInput[float32](&n.NodeBase, "FromMin", 0)
	n.FromMax = pulse.AddInput[float32](&n.NodeBase, "FromMax", 1)
	n.ToMin = pulse.AddInput[float32](&n.NodeBase, "ToMin", 0)
	n.ToMax = pulse.AddInput[float32](&n.NodeBase, "ToMax", 1)
	n.Out = pulse.AddOutput[float32](&n.NodeBase, "Out")
	return n
}

// Process maps Value with RemapValue.
func (n *Remap) Process(c *pulse.Context) error {
	var vals [5]float32
	for i, in := range []*pulse.Input[float32]{n.Value, n.FromMin, n.FromMax, n.ToMin, n.ToMax} {
		v, err := in.Read(c)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	n.Out.Write(c, RemapValue(vals[0], vals[1], vals[2], vals[3], vals[4]))
	return nil
}

// Unary applies a float function to one input.
type Unary struct {
	pulse.NodeBase
	In  *pulse.Input[float32]
	Out *pulse.Output[float32]
	fn  func(float32) float32
}

func newUnary(kind string, fn func(float32) float32) *Unary {
	n := &Unary{fn: fn}
	n.Init(kind)
	n.In = pulse.AddInput[float32](&n.NodeBase, "In", 0)
	n.Out = pulse.AddOutput[float32](&n.NodeBase, "Out")
	return n
}

// NewRemap0111 maps [0, 1] onto [-1, 1].
func NewRemap0111() *Unary {
	return newUnary("math.remap0111", func(v float32) float32 { return RemapValue(v, 0, 1, -1, 1) })
}

// NewRemap1101 maps [-1, 1] onto [0, 1].
func NewRemap1101() *Unary {
	return newUnary("math.remap1101", func(v float32) float32 { return RemapValue(v, -1, 1, 0, 1) })
}

// Process implements pulse.Node.
func (n *Unary) Process(c *pulse.Context) error {
	v, err := n.In.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, n.fn(v))
	return nil
}
