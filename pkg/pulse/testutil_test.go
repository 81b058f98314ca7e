package pulse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Test node types used across tests

// countingValue is a value node that counts its Process calls.
type countingValue struct {
	NodeBase
	Out   *Output[float32]
	Extra *Output[float32]
	value float32
	calls atomic.Int32
}

func newCountingValue(v float32) *countingValue {
	n := &countingValue{value: v}
	n.Init("test.counting")
	n.Out = AddOutput[float32](&n.NodeBase, "Out")
	n.Extra = AddOutput[float32](&n.NodeBase, "Extra")
	return n
}

func (n *countingValue) Process(c *Context) error {
	n.calls.Add(1)
	n.Out.Write(c, n.value)
	n.Extra.Write(c, n.value*10)
	return nil
}

// sum is a value node adding two inputs.
type sum struct {
	NodeBase
	A     *Input[float32]
	B     *Input[float32]
	Out   *Output[float32]
	calls atomic.Int32
}

func newSum() *sum {
	n := &sum{}
	n.Init("test.sum")
	n.A = AddInput[float32](&n.NodeBase, "A", 0)
	n.B = AddInput[float32](&n.NodeBase, "B", 0)
	n.Out = AddOutput[float32](&n.NodeBase, "Out")
	return n
}

func (n *sum) Process(c *Context) error {
	n.calls.Add(1)
	a, err := n.A.Read(c)
	if err != nil {
		return err
	}
	b, err := n.B.Read(c)
	if err != nil {
		return err
	}
	n.Out.Write(c, a+b)
	return nil
}

// tracker records the order in which nodes run.
type tracker struct {
	mu    sync.Mutex
	names []string
}

func (t *tracker) add(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.names = append(t.names, name)
}

func (t *tracker) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.names...)
}

// step is a flow node that records its name, optionally reads a float input,
// and continues along Next.
type step struct {
	NodeBase
	In    *FlowInput
	Value *Input[float32]
	Next  *FlowOutput
	name  string
	track *tracker
	seen  []float32
}

func newStep(name string, t *tracker) *step {
	n := &step{name: name, track: t}
	n.Init("test.step")
	n.SetID(name)
	n.In = n.AddFlowInput("In")
	n.Value = AddInput[float32](&n.NodeBase, "Value", -1)
	n.Next = n.AddFlowOutput("Next")
	return n
}

func (n *step) Process(c *Context) error {
	v, err := n.Value.Read(c)
	if err != nil {
		return err
	}
	n.seen = append(n.seen, v)
	n.track.add(n.name)
	return c.TriggerFlow(n.Next)
}

// fork triggers its branches in declaration order.
type fork struct {
	NodeBase
	In       *FlowInput
	Branches []*FlowOutput
}

func newFork(id string, branches ...string) *fork {
	n := &fork{}
	n.Init("test.fork")
	n.SetID(id)
	n.In = n.AddFlowInput("In")
	for _, b := range branches {
		n.Branches = append(n.Branches, n.AddFlowOutput(b))
	}
	return n
}

func (n *fork) Process(c *Context) error {
	for _, b := range n.Branches {
		if err := c.TriggerFlow(b); err != nil {
			return err
		}
	}
	return nil
}

// counterLoop is a flow node writing Index 0..Count-1 and triggering Loop each time.
type counterLoop struct {
	NodeBase
	In    *FlowInput
	Index *Output[float32]
	Loop  *FlowOutput
	Count int
}

func newCounterLoop(count int) *counterLoop {
	n := &counterLoop{Count: count}
	n.Init("test.loop")
	n.In = n.AddFlowInput("In")
	n.Index = AddOutput[float32](&n.NodeBase, "Index")
	n.Loop = n.AddFlowOutput("Loop")
	return n
}

func (n *counterLoop) Process(c *Context) error {
	for i := 0; i < n.Count; i++ {
		n.Index.Write(c, float32(i))
		if err := c.TriggerFlow(n.Loop); err != nil {
			return err
		}
	}
	return nil
}

// failing is a flow node returning err, or panicking when panicValue is set.
type failing struct {
	NodeBase
	In         *FlowInput
	err        error
	panicValue any
}

func newFailing(id string, err error) *failing {
	n := &failing{err: err}
	n.Init("test.failing")
	n.SetID(id)
	n.In = n.AddFlowInput("In")
	return n
}

func (n *failing) Process(*Context) error {
	if n.panicValue != nil {
		panic(n.panicValue)
	}
	return n.err
}

var errBoom = errors.New("boom")

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testCtx creates a traversal context over g with a quiet logger.
func testCtx(g *Graph, opts ...ContextOption) *Context {
	opts = append([]ContextOption{WithContextLogger(discardLogger())}, opts...)
	return NewContext(context.Background(), g, opts...)
}

// brokenValue is a value node whose Process always fails.
type brokenValue struct {
	NodeBase
	Out   *Output[float32]
	err   error
	calls atomic.Int32
}

func newBrokenValue(err error) *brokenValue {
	n := &brokenValue{err: err}
	n.Init("test.broken")
	n.Out = AddOutput[float32](&n.NodeBase, "Out")
	return n
}

func (n *brokenValue) Process(*Context) error {
	n.calls.Add(1)
	return n.err
}
