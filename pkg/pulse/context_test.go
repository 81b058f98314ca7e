package pulse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_MemoizesDiamond(t *testing.T) {
	// src feeds left and right, both feed join: src must run once.
	g := NewGraph()
	src := newCountingValue(3)
	left, right, join := newSum(), newSum(), newSum()
	g.Add(src, left, right, join)
	require.NoError(t, Connect(g, src.Out, left.A))
	require.NoError(t, Connect(g, src.Out, right.A))
	require.NoError(t, Connect(g, src.Extra, right.B))
	require.NoError(t, Connect(g, left.Out, join.A))
	require.NoError(t, Connect(g, right.Out, join.B))

	c := testCtx(g)
	tr := &tracker{}
	reader := newStep("reader", tr)
	g.Add(reader)
	require.NoError(t, Connect(g, join.Out, reader.Value))

	v, err := reader.Value.Read(c)
	require.NoError(t, err)
	assert.Equal(t, float32(3+(3+30)), v)

	again, err := reader.Value.Read(c)
	require.NoError(t, err)
	assert.Equal(t, v, again)

	assert.Equal(t, int32(1), src.calls.Load(), "producer runs at most once per traversal")
	assert.Equal(t, int32(1), join.calls.Load())
	assert.Equal(t, 4, c.Processed())

	// A new traversal evaluates again.
	_, err = reader.Value.Read(testCtx(g))
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRead_Defaults(t *testing.T) {
	g := NewGraph()
	n := newSum()
	g.Add(n)
	n.A.SetDefault(4)

	v, err := n.A.Read(testCtx(g))
	require.NoError(t, err)
	assert.Equal(t, float32(4), v)

	require.NoError(t, n.B.SetDefaultAny("2.5"))
	assert.Equal(t, float32(2.5), n.B.Default())

	err = n.B.SetDefaultAny("not a number")
	var castErr *CastError
	assert.ErrorAs(t, err, &castErr)
}

func TestRead_UnwrittenFlowOutputIsZero(t *testing.T) {
	g := NewGraph()
	loop := newCounterLoop(0)
	dst := newSum()
	g.Add(loop, dst)
	require.NoError(t, Connect(g, loop.Index, dst.A))
	dst.A.SetDefault(99)

	v, err := dst.A.Read(testCtx(g))
	require.NoError(t, err)
	assert.Equal(t, float32(0), v, "flow node outputs are never pulled")
}

func TestRead_FlowWriteInvalidatesDependents(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	loop := newCounterLoop(3)
	plusOne := newSum()
	plusOne.B.SetDefault(1)
	body := newStep("body", tr)
	g.Add(loop, plusOne, body)
	require.NoError(t, Connect(g, loop.Index, plusOne.A))
	require.NoError(t, Connect(g, plusOne.Out, body.Value))
	require.NoError(t, g.ConnectFlow(loop.Loop, body.In))

	c := testCtx(g)
	require.NoError(t, c.process(&loop.NodeBase, loop.In))

	assert.Equal(t, []float32{1, 2, 3}, body.seen)
	assert.Equal(t, int32(3), plusOne.calls.Load())
}

func TestRead_CycleDetectedAtResolve(t *testing.T) {
	g := NewGraph()
	a, b := newSum(), newSum()
	g.Add(a, b)
	require.NoError(t, Connect(g, a.Out, b.A))
	// Bypass the connect-time check to build a cycle.
	g.values[&a.A.port] = b.Out

	_, err := testCtx(g).resolve(b.Out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValueCycle)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.NotEmpty(t, cycleErr.Path)
}

func TestRead_FailureIsMemoized(t *testing.T) {
	g := NewGraph()
	src := newBrokenValue(errBoom)
	reader := newSum()
	g.Add(src, reader)
	require.NoError(t, Connect(g, src.Out, reader.A))

	c := testCtx(g)
	_, err := reader.A.Read(c)
	require.ErrorIs(t, err, errBoom)

	v, err := reader.A.Read(c)
	require.ErrorIs(t, err, errBoom, "a failed node keeps failing for the traversal")
	assert.Zero(t, v)
	assert.Equal(t, int32(1), src.calls.Load())

	_, err = reader.A.Read(c.Fork())
	assert.ErrorIs(t, err, errBoom, "forks inherit the failure")

	c.Invalidate()
	_, err = reader.A.Read(c)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(2), src.calls.Load(), "invalidation allows a retry")
}

func TestRead_TypeMismatchAtRuntime(t *testing.T) {
	g := NewGraph()
	src := newCountingValue(1)
	dst := newSum()
	g.Add(src, dst)
	// Force an edge whose value type does not match the input.
	in := AddInput[string](&dst.NodeBase, "S", "")
	g.values[&in.port] = src.Out

	_, err := in.Read(testCtx(g))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestProcess_ErrorsCarryNodeIdentity(t *testing.T) {
	t.Run("returned error is wrapped once", func(t *testing.T) {
		g := NewGraph()
		tr := &tracker{}
		first := newStep("first", tr)
		bad := newFailing("bad", errBoom)
		g.Add(first, bad)
		require.NoError(t, g.ConnectFlow(first.Next, bad.In))

		err := testCtx(g).process(&first.NodeBase, first.In)
		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)

		var nodeErr *NodeError
		require.ErrorAs(t, err, &nodeErr)
		assert.Equal(t, "bad", nodeErr.NodeID, "innermost node is reported")
		assert.Equal(t, "test.failing", nodeErr.Kind)
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		g := NewGraph()
		bad := newFailing("panicky", nil)
		bad.panicValue = "kaboom"
		g.Add(bad)

		err := testCtx(g).process(&bad.NodeBase, bad.In)
		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "panicky", panicErr.NodeID)
		assert.Equal(t, "kaboom", panicErr.Value)
		assert.Contains(t, panicErr.Stack, "goroutine")
	})

	t.Run("cancellation is not wrapped", func(t *testing.T) {
		g := NewGraph()
		bad := newFailing("cancelled", context.Canceled)
		g.Add(bad)

		err := testCtx(g).process(&bad.NodeBase, bad.In)
		assert.True(t, IsCancellation(err))
		var nodeErr *NodeError
		assert.False(t, errors.As(err, &nodeErr))
	})
}

func TestTriggerFlow_BranchOrder(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	root := newFork("root", "First", "Second", "Third")
	a1, a2 := newStep("a1", tr), newStep("a2", tr)
	b1 := newStep("b1", tr)
	c1 := newStep("c1", tr)
	g.Add(root, a1, a2, b1, c1)
	require.NoError(t, g.ConnectFlow(root.Branches[0], a1.In))
	require.NoError(t, g.ConnectFlow(a1.Next, a2.In))
	require.NoError(t, g.ConnectFlow(root.Branches[1], b1.In))
	require.NoError(t, g.ConnectFlow(root.Branches[2], c1.In))

	require.NoError(t, testCtx(g).process(&root.NodeBase, root.In))

	assert.Equal(t, []string{"a1", "a2", "b1", "c1"}, tr.list(),
		"each branch runs to completion before the next begins")
}

func TestTriggerFlow_Unconnected(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	n := newStep("alone", tr)
	g.Add(n)

	c := testCtx(g)
	assert.NoError(t, c.TriggerFlow(n.Next))
	assert.NoError(t, c.TriggerFlow(nil))
}

func TestTriggerFlow_MaxDepth(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	a, b := newStep("a", tr), newStep("b", tr)
	g.Add(a, b)
	require.NoError(t, g.ConnectFlow(a.Next, b.In))
	require.NoError(t, g.ConnectFlow(b.Next, a.In))

	err := testCtx(g, WithContextMaxFlowDepth(10)).process(&a.NodeBase, a.In)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxFlowDepth)

	var depthErr *MaxFlowDepthError
	require.ErrorAs(t, err, &depthErr)
	assert.Equal(t, 10, depthErr.Max)
	assert.Len(t, tr.list(), 11)
}

func TestTriggerFlow_Cancelled(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	a, b := newStep("a", tr), newStep("b", tr)
	g.Add(a, b)
	require.NoError(t, g.ConnectFlow(a.Next, b.In))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewContext(ctx, g, WithContextLogger(discardLogger()))

	err := c.TriggerFlow(a.Next)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.list())
}

func TestContext_Fork(t *testing.T) {
	g := NewGraph()
	src := newCountingValue(1)
	reader := newSum()
	g.Add(src, reader)
	require.NoError(t, Connect(g, src.Out, reader.A))

	c := testCtx(g)
	_, err := reader.A.Read(c)
	require.NoError(t, err)

	forked := c.Fork()
	_, err = reader.A.Read(forked)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load(), "fork starts from the parent's memo")

	forked.Invalidate()
	_, err = reader.A.Read(forked)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())

	_, err = reader.A.Read(c)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "parent memo is unaffected by the fork")
}

func TestContext_Go(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	target := newStep("target", tr)
	trigger := newStep("trigger", tr)
	g.Add(trigger, target)
	require.NoError(t, g.ConnectFlow(trigger.Next, target.In))

	var branches branchGroup
	c := testCtx(g)
	c.branches = &branches
	c.Go(func(fc *Context) error {
		return fc.TriggerFlow(trigger.Next)
	})
	branches.drain()

	assert.Equal(t, []string{"target"}, tr.list())
}

func TestContext_GoWhileDraining(t *testing.T) {
	var branches branchGroup
	require.True(t, branches.add())

	drained := make(chan struct{})
	go func() {
		branches.drain()
		close(drained)
	}()
	require.Eventually(t, func() bool {
		branches.mu.Lock()
		defer branches.mu.Unlock()
		return branches.draining
	}, time.Second, time.Millisecond)

	c := testCtx(NewGraph())
	c.branches = &branches
	var ran atomic.Bool
	c.Go(func(*Context) error {
		ran.Store(true)
		return nil
	})
	assert.False(t, ran.Load(), "branch is dropped while draining")
	assert.False(t, branches.add())

	branches.done()
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("drain did not return")
	}
	assert.True(t, branches.add(), "branches are admitted again after draining")
	branches.done()
}

// impulseNode receives impulses by name.
type impulseNode struct {
	NodeBase
	name  string
	got   []any
	track *tracker
}

func (n *impulseNode) Process(*Context) error { return nil }
func (n *impulseNode) Impulse() string        { return n.name }
func (n *impulseNode) ReceiveImpulse(c *Context, payload any) error {
	n.got = append(n.got, payload)
	n.track.add(n.ID())
	return nil
}

func TestContext_Impulse(t *testing.T) {
	g := NewGraph()
	tr := &tracker{}
	var receivers []*impulseNode
	for i, name := range []string{"wave", "other", "wave"} {
		n := &impulseNode{name: name, track: tr}
		n.Init("test.impulse")
		n.SetID(fmt.Sprintf("r%d", i))
		n.AddFlowOutput("Next")
		receivers = append(receivers, n)
		g.Add(n)
	}

	require.NoError(t, testCtx(g).Impulse("wave", 7))

	assert.Equal(t, []string{"r0", "r2"}, tr.list())
	assert.Equal(t, []any{7}, receivers[0].got)
	assert.Empty(t, receivers[1].got)
}

func TestContext_SendParameter(t *testing.T) {
	g := NewGraph()
	sender := &recordingSender{}
	c := testCtx(g, WithContextServices(Services{Parameters: sender}))

	require.NoError(t, c.SendParameter("/avatar/parameters/Blink", true))
	assert.Equal(t, []sentParameter{{"/avatar/parameters/Blink", true}}, sender.list())

	err := testCtx(g).SendParameter("/avatar/parameters/Name", "text")
	assert.ErrorIs(t, err, ErrUnsupportedValue, "default sender only accepts OSC parameter types")
}

type sentParameter struct {
	Address string
	Value   any
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentParameter
}

func (s *recordingSender) SendParameter(address string, value any) error {
	if err := CheckParameterValue(value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentParameter{address, value})
	return nil
}

func (s *recordingSender) list() []sentParameter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentParameter(nil), s.sent...)
}
