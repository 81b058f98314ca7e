package pulse

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Graph owns a set of nodes and the connections between their ports.
//
// Value connections run from an Output to an Input; an input has at most one
// incoming connection and connecting it again replaces the previous one. Flow
// connections run from a FlowOutput to a FlowInput; each flow output has at
// most one successor. Value connections may not form a cycle, flow connections
// may (loops are terminated by the nodes themselves).
//
// Graph is safe for concurrent use. Editing a graph while an Engine is running
// it should go through Engine.Edit so in-flight traversals are stopped first.
//
// Example:
//
//	g := pulse.NewGraph()
//	timer := nodes.NewFireEvery(time.Second)
//	send := nodes.NewSendParameter[bool]("/avatar/parameters/Blink")
//	g.Add(timer, send)
//	_ = g.ConnectFlow(timer.Next, send.In)
type Graph struct {
	mu     sync.RWMutex
	nodes  []Node
	byID   map[string]Node
	values map[*port]OutputPort // input -> producing output
	flows  map[*port]*FlowInput // flow output -> successor entry
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byID:   make(map[string]Node),
		values: make(map[*port]OutputPort),
		flows:  make(map[*port]*FlowInput),
	}
}

// Add inserts nodes into the graph, assigning a UUID to any node without an ID.
// Returns the graph for method chaining.
//
// Panics if:
//   - a node is nil
//   - a node already belongs to a graph
//   - a node ID is already taken in this graph
func (g *Graph) Add(nodes ...Node) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, n := range nodes {
		if n == nil {
			panic("pulse: node cannot be nil")
		}
		b := n.Base()
		if b.graph != nil {
			panic(fmt.Sprintf("pulse: node %s already belongs to a graph", b.id))
		}
		if b.id == "" {
			b.id = uuid.New().String()
		}
		if _, exists := g.byID[b.id]; exists {
			panic(fmt.Sprintf("pulse: %v: %s", ErrDuplicateNode, b.id))
		}
		b.self = n
		b.graph = g
		g.nodes = append(g.nodes, n)
		g.byID[b.id] = n
	}
	return g
}

// Remove deletes a node and every connection touching its ports.
func (g *Graph) Remove(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := n.Base()
	if b.graph != g {
		return fmt.Errorf("%w: %s", ErrNodeNotInGraph, b.id)
	}

	for in, out := range g.values {
		if in.owner == b || out.Node() == b {
			delete(g.values, in)
		}
	}
	for out, in := range g.flows {
		if out.owner == b || in.owner == b {
			delete(g.flows, out)
		}
	}

	for i, existing := range g.nodes {
		if existing.Base() == b {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	delete(g.byID, b.id)
	b.graph = nil
	b.self = nil
	return nil
}

// Connect wires a typed value output to a value input of the same type.
func Connect[T any](g *Graph, from *Output[T], to *Input[T]) error {
	return g.ConnectPorts(from, to)
}

// ConnectPorts wires a value output to a value input, checking at runtime that
// the output type is assignable to the input type and that no cycle is formed.
func (g *Graph) ConnectPorts(from OutputPort, to InputPort) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.owns(from, to); err != nil {
		return err
	}
	if !from.Type().AssignableTo(to.Type()) {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)",
			ErrTypeMismatch, from, typeName(from.Type()), to, typeName(to.Type()))
	}

	// The new edge makes to's node depend on from's node; it closes a cycle
	// when from's node already depends on to's node.
	if from.Node() == to.Node() || g.dependsOn(from.Node(), to.Node()) {
		return fmt.Errorf("%w: %s -> %s", ErrValueCycle, from, to)
	}

	g.values[to.ref()] = from
	return nil
}

// ConnectFlow wires a flow continuation to a flow entry point, replacing any
// previous successor of from.
func (g *Graph) ConnectFlow(from *FlowOutput, to *FlowInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.owns(from, to); err != nil {
		return err
	}
	g.flows[&from.port] = to
	return nil
}

// Disconnect removes the connection feeding an input, if any.
func (g *Graph) Disconnect(to InputPort) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, to.ref())
}

// DisconnectFlow removes the successor of a flow output, if any.
func (g *Graph) DisconnectFlow(from *FlowOutput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.flows, &from.port)
}

// Source returns the output feeding an input.
func (g *Graph) Source(in InputPort) (OutputPort, bool) {
	out := g.source(in.ref())
	return out, out != nil
}

// Successor returns the entry point a flow output continues into.
func (g *Graph) Successor(out *FlowOutput) (*FlowInput, bool) {
	in := g.successor(&out.port)
	return in, in != nil
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.byID[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Roots returns the nodes none of whose value outputs feed another node, in
// insertion order. These are the candidate trigger roots of the graph.
func (g *Graph) Roots() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	consumed := make(map[*NodeBase]bool)
	for _, out := range g.values {
		consumed[out.Node()] = true
	}
	var roots []Node
	for _, n := range g.nodes {
		if !consumed[n.Base()] {
			roots = append(roots, n)
		}
	}
	return roots
}

// Dependents returns the nodes with an input fed directly by one of n's outputs,
// in insertion order.
func (g *Graph) Dependents(n Node) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	direct := make(map[*NodeBase]bool)
	for in, out := range g.values {
		if out.Node() == n.Base() {
			direct[in.owner] = true
		}
	}
	var deps []Node
	for _, candidate := range g.nodes {
		if direct[candidate.Base()] {
			deps = append(deps, candidate)
		}
	}
	return deps
}

func (g *Graph) source(in *port) OutputPort {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[in]
}

func (g *Graph) successor(out *port) *FlowInput {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.flows[out]
}

// valueDependents returns every value node that transitively reads from b.
func (g *Graph) valueDependents(b *NodeBase) []*NodeBase {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []*NodeBase
	seen := map[*NodeBase]bool{b: true}
	queue := []*NodeBase{b}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for in, out := range g.values {
			consumer := in.owner
			if out.Node() != current || seen[consumer] || !consumer.IsValueNode() {
				continue
			}
			seen[consumer] = true
			result = append(result, consumer)
			queue = append(queue, consumer)
		}
	}
	return result
}

// dependsOn reports whether a transitively reads a value produced by b.
// Caller must hold g.mu.
func (g *Graph) dependsOn(a, b *NodeBase) bool {
	seen := map[*NodeBase]bool{}
	stack := []*NodeBase{a}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true
		for _, in := range current.inputs {
			out, ok := g.values[in.ref()]
			if !ok {
				continue
			}
			if out.Node() == b {
				return true
			}
			stack = append(stack, out.Node())
		}
	}
	return false
}

// owns checks that every port belongs to a node of this graph. Caller must hold g.mu.
func (g *Graph) owns(ports ...Port) error {
	for _, p := range ports {
		if p.Node() == nil || p.Node().graph != g {
			return fmt.Errorf("%w: port %s", ErrNodeNotInGraph, p)
		}
	}
	return nil
}
