package nodes

import (
	"log/slog"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// ParameterValue is the set of types an avatar parameter can carry.
type ParameterValue interface {
	bool | int | float32
}

// SendParameter sends Value to an avatar parameter and continues along Next.
// A send the transport refuses is logged and continues along Failed.
type SendParameter[T ParameterValue] struct {
	pulse.NodeBase
	In     *pulse.FlowInput
	Value  *pulse.Input[T]
	Next   *pulse.FlowOutput
	Failed *pulse.FlowOutput

	// Address is a parameter name or a full OSC address.
	Address string
}

// NewSendParameter creates a sender for the avatar parameter at address.
// A bare parameter name is expanded to /avatar/parameters/<name>.
func NewSendParameter[T ParameterValue](address string) *SendParameter[T] {
	n := &SendParameter[T]{Address: address}
	var zero T
	n.Init(kindOf[T]("osc.send_parameter"))
	n.In = n.AddFlowInput("In")
	n.Value = pulse.AddInput(&n.NodeBase, "Value", zero)
	n.Next = n.AddFlowOutput("Next")
	n.Failed = n.AddFlowOutput("Failed")
	return n
}

// Process sends Value and continues along Next, or Failed if the send fails.
func (n *SendParameter[T]) Process(c *pulse.Context) error {
	v, err := n.Value.Read(c)
	if err != nil {
		return err
	}
	addr := pulse.ParameterAddress(n.Address)
	if err := c.SendParameter(addr, v); err != nil {
		c.Logger().Warn("send parameter failed",
			slog.String("address", addr),
			slog.String("error", err.Error()))
		return c.TriggerFlow(n.Failed)
	}
	return c.TriggerFlow(n.Next)
}

// ReadParameter outputs the last received value of an avatar parameter.
// Found is false, and Value zero, until the parameter has been received.
type ReadParameter[T any] struct {
	pulse.NodeBase
	Value *pulse.Output[T]
	Found *pulse.Output[bool]

	Address string
}

// NewReadParameter creates a reader for the last received value at address.
func NewReadParameter[T any](address string) *ReadParameter[T] {
	n := &ReadParameter[T]{Address: address}
	n.Init(kindOf[T]("osc.read_parameter"))
	n.Value = pulse.AddOutput[T](&n.NodeBase, "Value")
	n.Found = pulse.AddOutput[bool](&n.NodeBase, "Found")
	return n
}

// Process implements pulse.Node.
func (n *ReadParameter[T]) Process(c *pulse.Context) error {
	raw, ok := c.Parameters().Get(pulse.ParameterAddress(n.Address))
	if !ok {
		var zero T
		n.Value.Write(c, zero)
		n.Found.Write(c, false)
		return nil
	}
	v, err := pulse.Convert[T](raw)
	if err != nil {
		return err
	}
	n.Value.Write(c, v)
	n.Found.Write(c, true)
	return nil
}
