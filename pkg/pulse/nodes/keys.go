package nodes

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

type keyAction int

const (
	keyPress keyAction = iota
	keyHold
	keyRelease
)

// Keybind injects a key chord through the KeySimulator. Failures are logged
// and continue along Failed.
type Keybind struct {
	pulse.NodeBase
	In       *pulse.FlowInput
	Duration *pulse.Input[int]
	Next     *pulse.FlowOutput
	Failed   *pulse.FlowOutput

	Keys   pulse.Keybind
	action keyAction
}

func newKeybind(kind string, action keyAction, kb pulse.Keybind) *Keybind {
	n := &Keybind{Keys: kb, action: action}
	n.Init(kind)
	n.In = n.AddFlowInput("In")
	if action == keyPress {
		n.Duration = pulse.AddInput(&n.NodeBase, "Milliseconds", 50)
	}
	n.Next = n.AddFlowOutput("Next")
	n.Failed = n.AddFlowOutput("Failed")
	return n
}

// NewPressKeybind presses and releases kb, holding it for Milliseconds.
func NewPressKeybind(kb pulse.Keybind) *Keybind {
	return newKeybind("keys.press", keyPress, kb)
}

// NewHoldKeybind presses kb and keeps it down.
func NewHoldKeybind(kb pulse.Keybind) *Keybind {
	return newKeybind("keys.hold", keyHold, kb)
}

// NewReleaseKeybind releases a held kb.
func NewReleaseKeybind(kb pulse.Keybind) *Keybind {
	return newKeybind("keys.release", keyRelease, kb)
}

// Process implements pulse.Node.
func (n *Keybind) Process(c *pulse.Context) error {
	var err error
	switch n.action {
	case keyPress:
		var ms int
		if ms, err = n.Duration.Read(c); err != nil {
			return err
		}
		err = c.Keys().PressKeybind(c, n.Keys, time.Duration(ms)*time.Millisecond)
	case keyHold:
		err = c.Keys().HoldKeybind(c, n.Keys)
	case keyRelease:
		err = c.Keys().ReleaseKeybind(c, n.Keys)
	}
	if err != nil {
		if pulse.IsCancellation(err) {
			return err
		}
		c.Logger().Warn("keybind failed",
			slog.String("keybind", n.Keys.String()),
			slog.String("error", err.Error()))
		return c.TriggerFlow(n.Failed)
	}
	return c.TriggerFlow(n.Next)
}
