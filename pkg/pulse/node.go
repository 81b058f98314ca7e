package pulse

import "sync"

// Node is the unit of computation in a graph.
//
// Implementations embed NodeBase, declare their ports in a constructor, and
// implement Process. Process is only ever called by the engine: while a value
// node's output is being resolved, or when a flow output connected to the
// node is triggered.
//
// Example:
//
//	type Double struct {
//	    pulse.NodeBase
//	    In  *pulse.Input[float32]
//	    Out *pulse.Output[float32]
//	}
//
//	func NewDouble() *Double {
//	    n := &Double{}
//	    n.Init("double")
//	    n.In = pulse.AddInput[float32](&n.NodeBase, "In", 0)
//	    n.Out = pulse.AddOutput[float32](&n.NodeBase, "Out")
//	    return n
//	}
//
//	func (n *Double) Process(c *pulse.Context) error {
//	    v, err := n.In.Read(c)
//	    if err != nil {
//	        return err
//	    }
//	    n.Out.Write(c, v*2)
//	    return nil
//	}
type Node interface {
	// Base returns the embedded NodeBase.
	Base() *NodeBase

	// Process runs the node for the traversal carried by c.
	Process(c *Context) error
}

// EntryProcessor is implemented by nodes with more than one flow input that
// need to know which entry point fired.
type EntryProcessor interface {
	Node
	ProcessEntry(c *Context, entry *FlowInput) error
}

// NodeBase holds the identity and port declarations shared by every node.
type NodeBase struct {
	id    string
	kind  string
	self  Node
	graph *Graph

	inputs   []InputPort
	outputs  []OutputPort
	flowIns  []*FlowInput
	flowOuts []*FlowOutput

	// mu guards node-local state that survives across pulses.
	mu sync.Mutex
}

// Base implements Node.
func (b *NodeBase) Base() *NodeBase { return b }

// Init sets the node type tag used in logs, metrics and definitions.
func (b *NodeBase) Init(kind string) { b.kind = kind }

// ID returns the node instance identifier. Empty until the node is added to a graph
// unless set explicitly with SetID.
func (b *NodeBase) ID() string { return b.id }

// SetID fixes the instance identifier. It must be called before the node is added to a graph.
func (b *NodeBase) SetID(id string) {
	if b.graph != nil {
		panic("pulse: cannot change the id of a node that belongs to a graph")
	}
	b.id = id
}

// Kind returns the node type tag.
func (b *NodeBase) Kind() string { return b.kind }

// Graph returns the owning graph, or nil.
func (b *NodeBase) Graph() *Graph { return b.graph }

// Inputs returns the value inputs in declaration order.
func (b *NodeBase) Inputs() []InputPort { return b.inputs }

// Outputs returns the value outputs in declaration order.
func (b *NodeBase) Outputs() []OutputPort { return b.outputs }

// FlowInputs returns the flow entry points in declaration order.
func (b *NodeBase) FlowInputs() []*FlowInput { return b.flowIns }

// FlowOutputs returns the flow continuations in declaration order.
func (b *NodeBase) FlowOutputs() []*FlowOutput { return b.flowOuts }

// Input looks up a value input by name.
func (b *NodeBase) Input(name string) (InputPort, bool) {
	for _, in := range b.inputs {
		if in.Name() == name {
			return in, true
		}
	}
	return nil, false
}

// Output looks up a value output by name.
func (b *NodeBase) Output(name string) (OutputPort, bool) {
	for _, out := range b.outputs {
		if out.Name() == name {
			return out, true
		}
	}
	return nil, false
}

// FlowInput looks up a flow entry point by name.
func (b *NodeBase) FlowInput(name string) (*FlowInput, bool) {
	for _, in := range b.flowIns {
		if in.name == name {
			return in, true
		}
	}
	return nil, false
}

// FlowOutput looks up a flow continuation by name.
func (b *NodeBase) FlowOutput(name string) (*FlowOutput, bool) {
	for _, out := range b.flowOuts {
		if out.name == name {
			return out, true
		}
	}
	return nil, false
}

// IsValueNode reports whether the node has no flow ports. Only value nodes are
// evaluated by pulling on their outputs.
func (b *NodeBase) IsValueNode() bool {
	return len(b.flowIns) == 0 && len(b.flowOuts) == 0
}

// Guard runs fn with exclusive access to the node's local state.
//
// Traversals started by different sources may process the same node at the
// same time. Guard serialises state reads and writes so they are never torn;
// it must not wrap TriggerFlow or any blocking call.
func (b *NodeBase) Guard(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

// node returns the full Node the base is embedded in. Set by Graph.Add.
func (b *NodeBase) node() Node { return b.self }
