package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// Random draws a value in [Min, Max) from the traversal's generator.
type Random[T pulse.Number] struct {
	pulse.NodeBase
	Min, Max *pulse.Input[T]
	Out      *pulse.Output[T]
}

// NewRandom creates a random value node with the range [0, 1).
func NewRandom[T pulse.Number]() *Random[T] {
	n := &Random[T]{}
	n.Init(kindOf[T]("random"))
	n.Min = pulse.AddInput[T](&n.NodeBase, "Min", 0)
	n.Max = pulse.AddInput[T](&n.NodeBase, "Max", 1)
	n.Out = pulse.AddOutput[T](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *Random[T]) Process(c *pulse.Context) error {
	lo, err := n.Min.Read(c)
	if err != nil {
		return err
	}
	hi, err := n.Max.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, pulse.Between(c.Rand(), lo, hi))
	return nil
}

// RandomBool is true with the given Probability.
type RandomBool struct {
	pulse.NodeBase
	Probability *pulse.Input[float32]
	Out         *pulse.Output[bool]
}

// NewRandomBool creates a coin flip with Probability 0.5.
func NewRandomBool() *RandomBool {
	n := &RandomBool{}
	n.Init("random.bool")
	n.Probability = pulse.AddInput[float32](&n.NodeBase, "Probability", 0.5)
	n.Out = pulse.AddOutput[bool](&n.NodeBase, "Out")
	return n
}

// Process implements pulse.Node.
func (n *RandomBool) Process(c *pulse.Context) error {
	p, err := n.Probability.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, c.Rand().Float64() < float64(p))
	return nil
}
