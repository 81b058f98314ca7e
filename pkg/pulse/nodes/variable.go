package nodes

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/variable"
)

// WriteVariable stores Value under Name in the variable store, JSON-encoded.
// Store failures are logged and continue along Failed.
type WriteVariable[T any] struct {
	pulse.NodeBase
	In     *pulse.FlowInput
	Name   *pulse.Input[string]
	Value  *pulse.Input[T]
	Next   *pulse.FlowOutput
	Failed *pulse.FlowOutput
}

// NewWriteVariable creates a writer for the variable name.
func NewWriteVariable[T any](name string) *WriteVariable[T] {
	n := &WriteVariable[T]{}
	var zero T
	n.Init(kindOf[T]("variable.write"))
	n.In = n.AddFlowInput("In")
	n.Name = pulse.AddInput(&n.NodeBase, "Name", name)
	n.Value = pulse.AddInput(&n.NodeBase, "Value", zero)
	n.Next = n.AddFlowOutput("Next")
	n.Failed = n.AddFlowOutput("Failed")
	return n
}

// Process implements pulse.Node.
func (n *WriteVariable[T]) Process(c *pulse.Context) error {
	name, err := n.Name.Read(c)
	if err != nil {
		return err
	}
	v, err := n.Value.Read(c)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Variables().Set(c, name, data); err != nil {
		if pulse.IsCancellation(err) {
			return err
		}
		c.Logger().Warn("write variable failed",
			slog.String("variable", name),
			slog.String("error", err.Error()))
		return c.TriggerFlow(n.Failed)
	}
	return c.TriggerFlow(n.Next)
}

// ReadVariable loads Name from the variable store. A missing variable reads as
// the zero value with Found false.
type ReadVariable[T any] struct {
	pulse.NodeBase
	Name  *pulse.Input[string]
	Value *pulse.Output[T]
	Found *pulse.Output[bool]
}

// NewReadVariable creates a reader for the variable name.
func NewReadVariable[T any](name string) *ReadVariable[T] {
	n := &ReadVariable[T]{}
	n.Init(kindOf[T]("variable.read"))
	n.Name = pulse.AddInput(&n.NodeBase, "Name", name)
	n.Value = pulse.AddOutput[T](&n.NodeBase, "Value")
	n.Found = pulse.AddOutput[bool](&n.NodeBase, "Found")
	return n
}

// Process implements pulse.Node.
func (n *ReadVariable[T]) Process(c *pulse.Context) error {
	name, err := n.Name.Read(c)
	if err != nil {
		return err
	}
	var v T
	data, err := c.Variables().Get(c, name)
	switch {
	case errors.Is(err, variable.ErrNotFound):
		n.Value.Write(c, v)
		n.Found.Write(c, false)
		return nil
	case err != nil:
		return err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return &pulse.CastError{From: string(data), To: TypeName[T](), Err: err}
	}
	n.Value.Write(c, v)
	n.Found.Write(c, true)
	return nil
}
