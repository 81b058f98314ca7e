package nodes

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// Sequence triggers its outputs one after another. Each branch runs to
// completion before the next starts.
type Sequence struct {
	pulse.NodeBase
	In       *pulse.FlowInput
	Branches []*pulse.FlowOutput
}

// NewSequence creates a sequence with count branches named "0".."count-1".
func NewSequence(count int) *Sequence {
	n := &Sequence{}
	n.Init("flow.sequence")
	n.In = n.AddFlowInput("In")
	for i := 0; i < count; i++ {
		n.Branches = append(n.Branches, n.AddFlowOutput(strconv.Itoa(i)))
	}
	return n
}

// Process implements pulse.Node.
func (n *Sequence) Process(c *pulse.Context) error {
	for _, b := range n.Branches {
		if err := c.TriggerFlow(b); err != nil {
			return err
		}
	}
	return nil
}

// For triggers Loop Count times with Index set to 0..Count-1, then Completed.
type For struct {
	pulse.NodeBase
	In        *pulse.FlowInput
	Count     *pulse.Input[int]
	Index     *pulse.Output[int]
	Loop      *pulse.FlowOutput
	Completed *pulse.FlowOutput
}

// NewFor creates a counted loop.
func NewFor() *For {
	n := &For{}
	n.Init("flow.for")
	n.In = n.AddFlowInput("In")
	n.Count = pulse.AddInput(&n.NodeBase, "Count", 0)
	n.Index = pulse.AddOutput[int](&n.NodeBase, "Index")
	n.Loop = n.AddFlowOutput("Loop")
	n.Completed = n.AddFlowOutput("Completed")
	return n
}

// Process runs Loop Count times, writing Index before each iteration,
// then continues along Completed.
func (n *For) Process(c *pulse.Context) error {
	count, err := n.Count.Read(c)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		n.Index.Write(c, i)
		if err := c.TriggerFlow(n.Loop); err != nil {
			return err
		}
	}
	return c.TriggerFlow(n.Completed)
}

// While triggers Loop as long as Condition holds, then Completed. Condition
// is re-evaluated before every iteration; only cancellation stops a loop
// whose condition never turns false.
type While struct {
	pulse.NodeBase
	In        *pulse.FlowInput
	Condition *pulse.Input[bool]
	Loop      *pulse.FlowOutput
	Completed *pulse.FlowOutput
}

// NewWhile creates a loop that runs while Condition holds.
func NewWhile() *While {
	n := &While{}
	n.Init("flow.while")
	n.In = n.AddFlowInput("In")
	n.Condition = pulse.AddInput(&n.NodeBase, "Condition", false)
	n.Loop = n.AddFlowOutput("Loop")
	n.Completed = n.AddFlowOutput("Completed")
	return n
}

// Process implements pulse.Node.
func (n *While) Process(c *pulse.Context) error {
	for {
		if err := c.Err(); err != nil {
			return err
		}
		cond, err := n.Condition.Read(c)
		if err != nil {
			return err
		}
		if !cond {
			return c.TriggerFlow(n.Completed)
		}
		if err := c.TriggerFlow(n.Loop); err != nil {
			return err
		}
		c.Invalidate()
	}
}

// Delay waits Milliseconds before continuing along Next. Entering the node
// again while it waits cancels the earlier wait, which then continues along
// Cancelled instead.
type Delay struct {
	pulse.NodeBase
	In           *pulse.FlowInput
	Milliseconds *pulse.Input[int]
	Next         *pulse.FlowOutput
	Cancelled    *pulse.FlowOutput

	run pulse.Supersede
}

// NewDelay creates a one-second delay.
func NewDelay() *Delay {
	n := &Delay{}
	n.Init("flow.delay")
	n.In = n.AddFlowInput("In")
	n.Milliseconds = pulse.AddInput(&n.NodeBase, "Milliseconds", 1000)
	n.Next = n.AddFlowOutput("Next")
	n.Cancelled = n.AddFlowOutput("Cancelled")
	return n
}

// Process waits Milliseconds, then continues along Next. A superseded run
// continues along Cancelled instead.
func (n *Delay) Process(c *pulse.Context) error {
	ms, err := n.Milliseconds.Read(c)
	if err != nil {
		return err
	}
	run, done := n.run.Begin(c)
	defer done()

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-run.Done():
		if pulse.Superseded(c, run) {
			return c.TriggerFlow(n.Cancelled)
		}
		return c.Err()
	case <-timer.C:
		return run.TriggerFlow(n.Next)
	}
}

// Async starts Branch on its own goroutine and continues along Next without
// waiting for it.
type Async struct {
	pulse.NodeBase
	In     *pulse.FlowInput
	Branch *pulse.FlowOutput
	Next   *pulse.FlowOutput
}

// NewAsync creates a node that continues on a separate branch.
func NewAsync() *Async {
	n := &Async{}
	n.Init("flow.async")
	n.In = n.AddFlowInput("In")
	n.Branch = n.AddFlowOutput("Branch")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *Async) Process(c *pulse.Context) error {
	c.Go(func(fc *pulse.Context) error {
		return fc.TriggerFlow(n.Branch)
	})
	return c.TriggerFlow(n.Next)
}

// Log writes Message to the engine log at info level.
type Log struct {
	pulse.NodeBase
	In      *pulse.FlowInput
	Message *pulse.Input[string]
	Next    *pulse.FlowOutput
}

// NewLog creates a log node.
func NewLog() *Log {
	n := &Log{}
	n.Init("flow.log")
	n.In = n.AddFlowInput("In")
	n.Message = pulse.AddInput(&n.NodeBase, "Message", "")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *Log) Process(c *pulse.Context) error {
	msg, err := n.Message.Read(c)
	if err != nil {
		return err
	}
	c.Logger().Info("graph log", slog.String("message", msg))
	return c.TriggerFlow(n.Next)
}
