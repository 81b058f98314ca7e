package nodes

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// Test helpers shared by the node tests

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(g *pulse.Graph, opts ...pulse.Option) *pulse.Engine {
	opts = append([]pulse.Option{pulse.WithLogger(discardLogger()), pulse.WithSeed(1)}, opts...)
	return pulse.NewEngine(g, opts...)
}

func newTestContext(g *pulse.Graph, opts ...pulse.ContextOption) *pulse.Context {
	opts = append([]pulse.ContextOption{pulse.WithContextLogger(discardLogger())}, opts...)
	return pulse.NewContext(context.Background(), g, opts...)
}

// read evaluates out in a fresh traversal.
func read[T any](t *testing.T, g *pulse.Graph, out *pulse.Output[T]) T {
	t.Helper()
	v, err := out.Read(newTestContext(g))
	require.NoError(t, err)
	return v
}

// journal records which marks ran, in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// mark is a flow node that writes its label to a journal.
type mark struct {
	pulse.NodeBase
	In    *pulse.FlowInput
	label string
	log   *journal
}

func newMark(label string, log *journal) *mark {
	n := &mark{label: label, log: log}
	n.Init("test.mark")
	n.In = n.AddFlowInput("In")
	return n
}

func (n *mark) Process(*pulse.Context) error {
	n.log.add(n.label)
	return nil
}

// recorder is a flow node recording the value of its input each time it runs.
type recorder[T any] struct {
	pulse.NodeBase
	In    *pulse.FlowInput
	Value *pulse.Input[T]

	mu  sync.Mutex
	got []T
}

func newRecorder[T any]() *recorder[T] {
	n := &recorder[T]{}
	var zero T
	n.Init("test.recorder")
	n.In = n.AddFlowInput("In")
	n.Value = pulse.AddInput(&n.NodeBase, "Value", zero)
	return n
}

func (n *recorder[T]) Process(c *pulse.Context) error {
	v, err := n.Value.Read(c)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, v)
	return nil
}

func (n *recorder[T]) values() []T {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]T(nil), n.got...)
}

// countingPulser runs every pulse directly and counts them.
type countingPulser struct {
	g  *pulse.Graph
	mu sync.Mutex
	n  int
}

func (p *countingPulser) Pulse(ctx context.Context, _ pulse.Node, fn func(c *pulse.Context) error) error {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
	return fn(pulse.NewContext(ctx, p.g, pulse.WithContextLogger(discardLogger())))
}

func (p *countingPulser) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}
