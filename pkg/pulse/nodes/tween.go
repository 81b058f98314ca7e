package nodes

import (
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// FrameInterval is the pacing of tween steps (about 60 Hz).
const FrameInterval = time.Second / 60

// TweenFloat interpolates Value from From to To over Milliseconds, triggering
// Step once per frame and Completed at the end. Entering the node again while
// a tween runs cancels it; the cancelled run continues along Cancelled.
type TweenFloat struct {
	pulse.NodeBase
	In           *pulse.FlowInput
	From, To     *pulse.Input[float32]
	Milliseconds *pulse.Input[int]
	Value        *pulse.Output[float32]
	Step         *pulse.FlowOutput
	Completed    *pulse.FlowOutput
	Cancelled    *pulse.FlowOutput

	run pulse.Supersede
}

// NewTweenFloat creates a one-second tween from 0 to 1.
func NewTweenFloat() *TweenFloat {
	n := &TweenFloat{}
	n.Init("tween.float")
	n.In = n.AddFlowInput("In")
	n.From = pulse.AddInput[float32](&n.NodeBase, "From", 0)
	n.To = pulse.AddInput[float32](&n.NodeBase, "To", 1)
	n.Milliseconds = pulse.AddInput(&n.NodeBase, "Milliseconds", 1000)
	n.Value = pulse.AddOutput[float32](&n.NodeBase, "Value")
	n.Step = n.AddFlowOutput("Step")
	n.Completed = n.AddFlowOutput("Completed")
	n.Cancelled = n.AddFlowOutput("Cancelled")
	return n
}

// Process implements pulse.Node.
func (n *TweenFloat) Process(c *pulse.Context) error {
	from, err := n.From.Read(c)
	if err != nil {
		return err
	}
	to, err := n.To.Read(c)
	if err != nil {
		return err
	}
	ms, err := n.Milliseconds.Read(c)
	if err != nil {
		return err
	}
	duration := time.Duration(ms) * time.Millisecond

	run, done := n.run.Begin(c)
	defer done()

	if duration <= 0 {
		n.Value.Write(run, to)
		if err := run.TriggerFlow(n.Step); err != nil {
			return err
		}
		return run.TriggerFlow(n.Completed)
	}

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()
	start := time.Now()
	for {
		t := min(float32(time.Since(start))/float32(duration), 1)
		n.Value.Write(run, lerp(from, to, t))
		if err := run.TriggerFlow(n.Step); err != nil {
			if pulse.Superseded(c, run) {
				return c.TriggerFlow(n.Cancelled)
			}
			return err
		}
		if t >= 1 {
			return run.TriggerFlow(n.Completed)
		}
		select {
		case <-run.Done():
			if pulse.Superseded(c, run) {
				return c.TriggerFlow(n.Cancelled)
			}
			return c.Err()
		case <-ticker.C:
		}
	}
}
