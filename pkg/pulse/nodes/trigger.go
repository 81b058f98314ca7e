package nodes

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// FireEvery triggers Next, then waits Interval, for as long as the engine
// runs. A non-positive interval disables the timer.
type FireEvery struct {
	pulse.NodeBase
	Next     *pulse.FlowOutput
	Interval time.Duration
}

// NewFireEvery creates a timer firing every interval. A non-positive
// interval disables it.
func NewFireEvery(interval time.Duration) *FireEvery {
	n := &FireEvery{Interval: interval}
	n.Init("trigger.fire_every")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *FireEvery) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Run implements pulse.Source.
func (n *FireEvery) Run(ctx context.Context, p pulse.Pulser) error {
	return every(ctx, n.Interval, func() {
		_ = p.Pulse(ctx, n, n.Process)
	})
}

// every calls fn, then sleeps interval, until ctx is done. A failing call
// does not end the loop; fn reports its own errors.
func every(ctx context.Context, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return nil
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn()
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// FireWhile triggers Next every Interval while Condition equals the wanted
// value. The condition is read afresh on each tick.
type FireWhile struct {
	pulse.NodeBase
	Condition *pulse.Input[bool]
	Next      *pulse.FlowOutput
	Interval  time.Duration
	want      bool
}

func newFireWhile(kind string, want bool, interval time.Duration) *FireWhile {
	n := &FireWhile{want: want, Interval: interval}
	n.Init(kind)
	n.Condition = pulse.AddInput(&n.NodeBase, "Condition", false)
	n.Next = n.AddFlowOutput("Next")
	return n
}

// NewFireWhileTrue fires every interval while Condition is true.
func NewFireWhileTrue(interval time.Duration) *FireWhile {
	return newFireWhile("trigger.fire_while_true", true, interval)
}

// NewFireWhileFalse fires every interval while Condition is false.
func NewFireWhileFalse(interval time.Duration) *FireWhile {
	return newFireWhile("trigger.fire_while_false", false, interval)
}

// Process implements pulse.Node.
func (n *FireWhile) Process(c *pulse.Context) error {
	cond, err := n.Condition.Read(c)
	if err != nil {
		return err
	}
	if cond != n.want {
		return nil
	}
	return c.TriggerFlow(n.Next)
}

// Run implements pulse.Source.
func (n *FireWhile) Run(ctx context.Context, p pulse.Pulser) error {
	return every(ctx, n.Interval, func() {
		_ = p.Pulse(ctx, n, n.Process)
	})
}

// FireOnEdge triggers Next when Condition changes to the wanted value. It is
// polled on every engine tick; the previous value starts as false.
type FireOnEdge struct {
	pulse.NodeBase
	Condition *pulse.Input[bool]
	Next      *pulse.FlowOutput
	want      bool
	prev      bool
}

func newFireOnEdge(kind string, want bool) *FireOnEdge {
	n := &FireOnEdge{want: want}
	n.Init(kind)
	n.Condition = pulse.AddInput(&n.NodeBase, "Condition", false)
	n.Next = n.AddFlowOutput("Next")
	return n
}

// NewFireOnTrue fires when Condition goes from false to true.
func NewFireOnTrue() *FireOnEdge { return newFireOnEdge("trigger.fire_on_true", true) }

// NewFireOnFalse fires when Condition goes from true to false.
func NewFireOnFalse() *FireOnEdge { return newFireOnEdge("trigger.fire_on_false", false) }

// Process fires unconditionally, for manual triggers.
func (n *FireOnEdge) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Update implements pulse.Updater.
func (n *FireOnEdge) Update(c *pulse.Context) error {
	cur, err := n.Condition.Read(c)
	if err != nil {
		return err
	}
	var fire bool
	n.Guard(func() {
		fire = cur != n.prev && cur == n.want
		n.prev = cur
	})
	if !fire {
		return nil
	}
	return c.TriggerFlow(n.Next)
}

// FireOnChange triggers Next whenever Value differs from the previous tick.
// The first reading only records the value.
type FireOnChange[T comparable] struct {
	pulse.NodeBase
	Value    *pulse.Input[T]
	Previous *pulse.Output[T]
	Current  *pulse.Output[T]
	Next     *pulse.FlowOutput

	seen bool
	prev T
}

// NewFireOnChange creates an edge trigger for changes of a T value.
func NewFireOnChange[T comparable]() *FireOnChange[T] {
	n := &FireOnChange[T]{}
	var zero T
	n.Init(kindOf[T]("trigger.fire_on_change"))
	n.Value = pulse.AddInput(&n.NodeBase, "Value", zero)
	n.Previous = pulse.AddOutput[T](&n.NodeBase, "Previous")
	n.Current = pulse.AddOutput[T](&n.NodeBase, "Current")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *FireOnChange[T]) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Update implements pulse.Updater.
func (n *FireOnChange[T]) Update(c *pulse.Context) error {
	cur, err := n.Value.Read(c)
	if err != nil {
		return err
	}
	var prev T
	var changed bool
	n.Guard(func() {
		prev = n.prev
		changed = n.seen && cur != n.prev
		n.seen = true
		n.prev = cur
	})
	if !changed {
		return nil
	}
	n.Previous.Write(c, prev)
	n.Current.Write(c, cur)
	return c.TriggerFlow(n.Next)
}

// Button fires Next once per Press, on the next engine tick. Presses between
// two ticks collapse into one.
type Button struct {
	pulse.NodeBase
	Next    *pulse.FlowOutput
	pressed atomic.Bool
}

// NewButton creates a button fired by Press.
func NewButton() *Button {
	n := &Button{}
	n.Init("trigger.button")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Press latches a click. Safe to call from any goroutine.
func (n *Button) Press() { n.pressed.Store(true) }

// Poll consumes the latch and reports whether a click was pending.
func (n *Button) Poll() bool { return n.pressed.Swap(false) }

// Process implements pulse.Node.
func (n *Button) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Update implements pulse.Updater.
func (n *Button) Update(c *pulse.Context) error {
	if !n.Poll() {
		return nil
	}
	return c.TriggerFlow(n.Next)
}

// Lifecycle fires Next when the engine starts or stops.
type Lifecycle struct {
	pulse.NodeBase
	Next *pulse.FlowOutput
	kind pulse.EventKind
}

func newLifecycle(kind string, ev pulse.EventKind) *Lifecycle {
	n := &Lifecycle{kind: ev}
	n.Init(kind)
	n.Next = n.AddFlowOutput("Next")
	return n
}

// NewOnStart fires once after the engine starts.
func NewOnStart() *Lifecycle { return newLifecycle("event.on_start", pulse.EventEngineStarted) }

// NewOnStop fires once as the engine stops.
func NewOnStop() *Lifecycle { return newLifecycle("event.on_stop", pulse.EventEngineStopped) }

// Process implements pulse.Node.
func (n *Lifecycle) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Accepts implements pulse.EventReceiver.
func (n *Lifecycle) Accepts(kind pulse.EventKind) bool { return kind == n.kind }

// HandleEvent implements pulse.EventReceiver.
func (n *Lifecycle) HandleEvent(c *pulse.Context, _ pulse.Event) error {
	return c.TriggerFlow(n.Next)
}
