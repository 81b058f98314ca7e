package pulse

import (
	"context"
	"fmt"
	"sync"
)

// Pulser starts traversals. The Engine implements it.
type Pulser interface {
	// Pulse runs fn as a new traversal rooted at root and returns its error.
	// Failures are logged and counted before they are returned.
	Pulse(ctx context.Context, root Node, fn func(c *Context) error) error
}

// Source is a long-running trigger such as an interval timer. The engine runs
// each Source on its own goroutine for as long as it is started; Run must
// return when ctx is cancelled.
type Source interface {
	Node
	Run(ctx context.Context, p Pulser) error
}

// Updater is re-evaluated on every engine tick, each time in a fresh traversal.
// Edge and state triggers implement it.
type Updater interface {
	Node
	Update(c *Context) error
}

// ParameterListener receives avatar parameters whose address matches one of
// its patterns (see MatchAddress).
type ParameterListener interface {
	Node
	Addresses() []string
	OnParameter(c *Context, address string, value any) error
}

// EventKind identifies an engine or client event.
type EventKind int

// Event kinds.
const (
	EventAvatarChanged EventKind = iota
	EventInstanceJoined
	EventInstanceLeft
	EventEngineStarted
	EventEngineStopped
	EventCustom
)

var eventKindNames = map[EventKind]string{
	EventAvatarChanged:  "avatar_changed",
	EventInstanceJoined: "instance_joined",
	EventInstanceLeft:   "instance_left",
	EventEngineStarted:  "engine_started",
	EventEngineStopped:  "engine_stopped",
	EventCustom:         "custom",
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered to EventReceivers by Engine.Dispatch.
type Event struct {
	Kind EventKind
	// Name distinguishes custom events.
	Name string
	// Avatar is set for EventAvatarChanged.
	Avatar Avatar
	// User is set for instance join/leave events.
	User string
	// Payload carries custom event data.
	Payload any
}

// EventReceiver handles engine and client events. Each accepted event runs
// HandleEvent exactly once, in its own traversal.
type EventReceiver interface {
	Node
	Accepts(kind EventKind) bool
	HandleEvent(c *Context, ev Event) error
}

// ImpulseReceiver runs when an impulse with its name is fired inside a
// traversal (see Context.Impulse).
type ImpulseReceiver interface {
	Node
	Impulse() string
	ReceiveImpulse(c *Context, payload any) error
}

// Supersede tracks the live run of a long-running node so that entering the
// node again cancels the previous run.
//
// The zero value is ready to use.
type Supersede struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin cancels any run still in progress and returns a Context for the new
// run. done must be called when the run ends.
func (s *Supersede) Begin(c *Context) (run *Context, done func()) {
	ctx, cancel := context.WithCancel(c.Context)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	return c.WithContext(ctx), func() {
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
}

// Cancel stops the run in progress, if any.
func (s *Supersede) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Superseded reports whether run was cancelled by a newer run (or Cancel)
// rather than by its parent traversal.
func Superseded(parent, run *Context) bool {
	return run.Err() != nil && parent.Err() == nil
}
