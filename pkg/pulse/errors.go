package pulse

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for graph editing.
var (
	// ErrValueCycle indicates a value connection would close (or did close) a dependency cycle.
	ErrValueCycle = errors.New("value connections form a cycle")

	// ErrTypeMismatch indicates an output's type cannot feed the input it was connected to.
	ErrTypeMismatch = errors.New("port types do not match")

	// ErrNodeNotInGraph indicates a port or node belongs to a different graph (or none).
	ErrNodeNotInGraph = errors.New("node is not part of this graph")

	// ErrDuplicateNode indicates two nodes share an ID.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// Sentinel errors for execution.
var (
	// ErrMaxFlowDepth indicates nested flow exceeded the configured limit.
	ErrMaxFlowDepth = errors.New("exceeded maximum flow depth")

	// ErrNotFlowNode indicates a manual trigger targeted a node without flow outputs.
	ErrNotFlowNode = errors.New("node has no flow outputs")

	// ErrEngineRunning indicates Start was called twice.
	ErrEngineRunning = errors.New("engine already running")

	// ErrUnsupportedValue indicates a value of a type the collaborator cannot carry.
	ErrUnsupportedValue = errors.New("unsupported value type")
)

// NodeError wraps an error with node context.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Kind is the node type tag.
	Kind string
	// Op is the operation that failed ("process", "resolve").
	Op string
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %s: %v", e.NodeID, e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from a node's Process call.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CycleError reports re-entrant resolution of a node within one resolution chain.
type CycleError struct {
	// NodeID is the node that was reached twice.
	NodeID string
	// Path lists the node IDs being resolved when the cycle was found, outermost first.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("value cycle at node %s (path %v)", e.NodeID, e.Path)
}

// Unwrap returns ErrValueCycle for errors.Is support.
func (e *CycleError) Unwrap() error {
	return ErrValueCycle
}

// CastError reports a checked conversion that could not be performed.
type CastError struct {
	// From is the source value.
	From any
	// To is the name of the target type.
	To string
	// Err is the underlying conversion failure, if any.
	Err error
}

// Error implements the error interface.
func (e *CastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %v (%T) to %s: %v", e.From, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("cannot convert %v (%T) to %s", e.From, e.From, e.To)
}

// Unwrap returns the underlying error.
func (e *CastError) Unwrap() error {
	return e.Err
}

// MaxFlowDepthError provides context when the flow depth limit is exceeded.
type MaxFlowDepthError struct {
	// Max is the configured depth limit.
	Max int
	// NodeID is the node that would have run next.
	NodeID string
}

// Error implements the error interface.
func (e *MaxFlowDepthError) Error() string {
	return fmt.Sprintf("exceeded maximum flow depth (%d) at node %s", e.Max, e.NodeID)
}

// Unwrap returns ErrMaxFlowDepth for errors.Is support.
func (e *MaxFlowDepthError) Unwrap() error {
	return ErrMaxFlowDepth
}

// IsCancellation reports whether err is the result of a cancelled or expired context.
// Cancellation is a clean unwind, not a failure.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
