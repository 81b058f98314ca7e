package pulse

import (
	"fmt"
	"reflect"
)

// portKind distinguishes the four port shapes a node can declare.
type portKind int

const (
	kindValueIn portKind = iota
	kindValueOut
	kindFlowIn
	kindFlowOut
)

// port is the shared part of every port. Its address is the port's identity
// in the graph's connection tables.
type port struct {
	owner *NodeBase
	name  string
	index int
	kind  portKind
	typ   reflect.Type
}

// Node returns the node the port belongs to.
func (p *port) Node() *NodeBase { return p.owner }

// Name returns the declared port name.
func (p *port) Name() string { return p.name }

// Index returns the port's position among ports of the same shape on its node.
func (p *port) Index() int { return p.index }

// Type returns the value type carried by the port, or nil for flow ports.
func (p *port) Type() reflect.Type { return p.typ }

// String implements fmt.Stringer as "<node>.<port>".
func (p *port) String() string {
	id := "?"
	if p.owner != nil {
		id = p.owner.id
	}
	return fmt.Sprintf("%s.%s", id, p.name)
}

func (p *port) ref() *port { return p }

// Port is the type-erased view of any port.
type Port interface {
	Node() *NodeBase
	Name() string
	Index() int
	Type() reflect.Type
	String() string
	ref() *port
}

// InputPort is the type-erased view of an Input[T].
type InputPort interface {
	Port
	// SetDefaultAny converts v to the port type and uses it when the input is unconnected.
	SetDefaultAny(v any) error
	// DefaultAny returns the current default value.
	DefaultAny() any
}

// OutputPort is the type-erased view of an Output[T].
type OutputPort interface {
	Port
	output()
}

// Input is a typed value input. Read resolves it against the graph.
type Input[T any] struct {
	port
	def T
}

// AddInput declares a value input on b. def is returned when the input is unconnected.
func AddInput[T any](b *NodeBase, name string, def T) *Input[T] {
	in := &Input[T]{def: def}
	in.port = port{owner: b, name: name, index: len(b.inputs), kind: kindValueIn, typ: typeOf[T]()}
	b.inputs = append(b.inputs, in)
	return in
}

// Default returns the value used when the input is unconnected.
func (in *Input[T]) Default() T { return in.def }

// SetDefault replaces the unconnected value.
func (in *Input[T]) SetDefault(v T) { in.def = v }

// SetDefaultAny implements InputPort.
func (in *Input[T]) SetDefaultAny(v any) error {
	t, err := Convert[T](v)
	if err != nil {
		return fmt.Errorf("default for %s: %w", in.String(), err)
	}
	in.def = t
	return nil
}

// DefaultAny implements InputPort.
func (in *Input[T]) DefaultAny() any { return in.def }

// Read returns the input's value for this traversal. An unconnected input yields
// its default without evaluating anything; a connected one resolves the producer.
func (in *Input[T]) Read(c *Context) (T, error) {
	var zero T
	src := c.graph.source(&in.port)
	if src == nil {
		return in.def, nil
	}
	v, err := c.resolve(src)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, &CastError{From: v, To: typeName(in.typ), Err: ErrTypeMismatch}
	}
	return t, nil
}

// Output is a typed value output.
type Output[T any] struct {
	port
}

// AddOutput declares a value output on b.
func AddOutput[T any](b *NodeBase, name string) *Output[T] {
	out := &Output[T]{}
	out.port = port{owner: b, name: name, index: len(b.outputs), kind: kindValueOut, typ: typeOf[T]()}
	b.outputs = append(b.outputs, out)
	return out
}

func (out *Output[T]) output() {}

// Write records v as this output's value for the traversal carried by c.
func (out *Output[T]) Write(c *Context, v T) {
	c.store(&out.port, v)
}

// Read returns the output's value for this traversal, processing a value node
// if it has not run yet. Outputs of flow nodes read as the zero value until
// written.
func (out *Output[T]) Read(c *Context) (T, error) {
	var zero T
	v, err := c.resolve(out)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &CastError{From: v, To: typeName(out.typ), Err: ErrTypeMismatch}
	}
	return t, nil
}

// FlowInput is an entry point that flow outputs can connect to.
type FlowInput struct {
	port
}

// AddFlowInput declares a flow entry point on b.
func (b *NodeBase) AddFlowInput(name string) *FlowInput {
	in := &FlowInput{}
	in.port = port{owner: b, name: name, index: len(b.flowIns), kind: kindFlowIn}
	b.flowIns = append(b.flowIns, in)
	return in
}

// FlowOutput is a named flow continuation (branch).
type FlowOutput struct {
	port
}

// AddFlowOutput declares a flow continuation on b.
func (b *NodeBase) AddFlowOutput(name string) *FlowOutput {
	out := &FlowOutput{}
	out.port = port{owner: b, name: name, index: len(b.flowOuts), kind: kindFlowOut}
	b.flowOuts = append(b.flowOuts, out)
	return out
}
