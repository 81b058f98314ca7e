/*
Package pulse is a node-graph execution engine for VRChat avatar automation.

# Overview

A Graph holds nodes connected through typed ports. Value connections carry
data and are evaluated lazily: reading an input pulls on the producing node,
which runs at most once per traversal. Flow connections carry control: a node
continues execution by triggering one of its flow outputs, which runs the
connected node to completion before returning.

Every stimulus (timer tick, received avatar parameter, client event, button
press) starts a traversal with its own Context. The Context holds the memo of
already-evaluated values, the cancellation signal and the collaborators nodes
talk to (OSC sender, client state, key simulator, variable store).

# Basic Usage

	g := pulse.NewGraph()
	timer := nodes.NewFireEvery(time.Second)
	random := nodes.NewRandomBool()
	send := nodes.NewSendParameter[bool]("/avatar/parameters/Blink")
	g.Add(timer, random, send)

	_ = g.ConnectFlow(timer.Next, send.In)
	_ = pulse.Connect(g, random.Out, send.Value)

	engine := pulse.NewEngine(g, pulse.WithServices(pulse.Services{
	    Parameters: oscClient,
	}))
	if err := engine.Start(ctx); err != nil {
	    log.Fatal(err)
	}
	defer engine.Stop()

# Writing Nodes

Embed NodeBase, declare ports in the constructor and implement Process:

	type Double struct {
	    pulse.NodeBase
	    In  *pulse.Input[float32]
	    Out *pulse.Output[float32]
	}

	func NewDouble() *Double {
	    n := &Double{}
	    n.Init("math.double")
	    n.In = pulse.AddInput[float32](&n.NodeBase, "In", 0)
	    n.Out = pulse.AddOutput[float32](&n.NodeBase, "Out")
	    return n
	}

	func (n *Double) Process(c *pulse.Context) error {
	    v, err := n.In.Read(c)
	    if err != nil {
	        return err
	    }
	    n.Out.Write(c, v*2)
	    return nil
	}

A node without flow ports is a value node and runs when one of its outputs is
read. Any other node runs when flow reaches it. Trigger sources implement
Source, Updater, ParameterListener, EventReceiver or ImpulseReceiver and are
discovered by the Engine when it starts.

# Node State

State a node keeps between pulses (previous condition, elapsed time) must be
read and written inside Guard. Traversals from different sources can process
the same node concurrently; Guard keeps each access consistent and the last
write wins. Guard is never held across TriggerFlow.

# Cancellation

Stopping the engine cancels every live traversal. Long-running nodes wait on
c.Done() at each suspension point and return c.Err(), which the engine logs as
a cancellation rather than a failure. Nodes that must cancel their own previous
run when re-entered (delays, tweens) use Supersede and signal their Cancelled
branch.

# Error Handling

Errors carry the node they came from:

	err := engine.Trigger(ctx, node)
	var nodeErr *pulse.NodeError
	if errors.As(err, &nodeErr) {
	    log.Printf("node %s failed: %v", nodeErr.NodeID, nodeErr.Err)
	}

Panics in nodes are recovered and converted to PanicError with stack trace.
A failed traversal never stops its trigger source.

# Thread Safety

  - Graph IS safe for concurrent use; edit a running graph through Engine.Edit
  - Engine IS safe for concurrent use
  - Context is NOT safe for concurrent use; use Fork or Go for parallel branches
  - ParameterTable and Random are safe for concurrent use

# Subpackages

  - nodes: built-in node library and type registry
  - definition: YAML/JSON graph definitions
  - variable: persistent variable stores (memory, SQLite, Redis)
  - observability: logging, metrics and tracing helpers
  - config: engine configuration
  - expr: boolean condition expressions over parameter names
  - text: ${name} string templates
*/
package pulse
