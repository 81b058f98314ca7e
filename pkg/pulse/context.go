package pulse

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/variable"
)

// DefaultMaxFlowDepth bounds nested TriggerFlow calls within one traversal.
const DefaultMaxFlowDepth = 1000

// Context carries one traversal of a graph. It extends context.Context with
// the traversal's memo, its collaborators and its observability hooks.
//
// A Context is created per trigger (timer tick, received parameter, event,
// manual trigger) and must not be shared between goroutines; use Fork to hand a
// branch to another goroutine. Each node sees a derived Context whose logger
// is enriched with the node's identity.
type Context struct {
	context.Context

	pulseID  string
	source   string
	graph    *Graph
	base     *slog.Logger
	logger   *slog.Logger
	services Services
	random   *Random
	params   *ParameterTable
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	maxDepth int

	memo     *memo
	depth    int
	node     *NodeBase
	branches *branchGroup
	// lifetime bounds branches started with Go. Nil ties them to the traversal.
	lifetime context.Context
}

// memo holds the per-traversal value cache.
type memo struct {
	values    map[*port]any
	evaluated map[*NodeBase]error // present once processed; holds the failure, if any
	resolving []*NodeBase
	processed int
}

func newMemo() *memo {
	return &memo{
		values:    make(map[*port]any),
		evaluated: make(map[*NodeBase]error),
	}
}

func (m *memo) clone() *memo {
	c := newMemo()
	for k, v := range m.values {
		c.values[k] = v
	}
	for k, v := range m.evaluated {
		c.evaluated[k] = v
	}
	c.processed = m.processed
	return c
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithContextLogger sets the logger. It is enriched with pulse_id, node_id
// and node_kind for every node.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.base = logger
		}
	}
}

// WithContextServices sets the collaborators reachable from nodes.
func WithContextServices(s Services) ContextOption {
	return func(c *Context) {
		c.services = s
	}
}

// WithContextRandom sets the generator used by random nodes.
func WithContextRandom(r *Random) ContextOption {
	return func(c *Context) {
		if r != nil {
			c.random = r
		}
	}
}

// WithContextParameters sets the table of last-received avatar parameters.
func WithContextParameters(t *ParameterTable) ContextOption {
	return func(c *Context) {
		if t != nil {
			c.params = t
		}
	}
}

// WithContextPulseID sets the traversal identifier.
// If not set, a UUID will be auto-generated.
func WithContextPulseID(id string) ContextOption {
	return func(c *Context) {
		c.pulseID = id
	}
}

// WithContextSource names the trigger that started the traversal.
func WithContextSource(source string) ContextOption {
	return func(c *Context) {
		c.source = source
	}
}

// WithContextMaxFlowDepth sets the nested flow limit. Values <= 0 are ignored.
func WithContextMaxFlowDepth(n int) ContextOption {
	return func(c *Context) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithContextObservability sets the metrics recorder and span manager.
// Nil arguments keep the no-op defaults.
func WithContextObservability(metrics observability.MetricsRecorder, spans observability.SpanManager) ContextOption {
	return func(c *Context) {
		if metrics != nil {
			c.metrics = metrics
		}
		if spans != nil {
			c.spans = spans
		}
	}
}

// NewContext creates a traversal context over g.
//
// Example:
//
//	c := pulse.NewContext(context.Background(), g,
//	    pulse.WithContextLogger(logger),
//	    pulse.WithContextRandom(pulse.NewRandom(42)))
//	v, err := remap.Out.Read(c)
func NewContext(parent context.Context, g *Graph, opts ...ContextOption) *Context {
	c := &Context{
		Context:  parent,
		graph:    g,
		base:     slog.Default(),
		random:   DefaultRandom(),
		params:   NewParameterTable(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		maxDepth: DefaultMaxFlowDepth,
		memo:     newMemo(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pulseID == "" {
		c.pulseID = uuid.New().String()
	}
	c.services = c.services.withDefaults()
	c.logger = c.base.With(slog.String("pulse_id", c.pulseID))
	return c
}

// PulseID returns the traversal identifier.
func (c *Context) PulseID() string { return c.pulseID }

// Source returns the name of the trigger that started the traversal.
func (c *Context) Source() string { return c.source }

// Graph returns the graph being traversed.
func (c *Context) Graph() *Graph { return c.graph }

// Logger returns the logger enriched with the current traversal and node.
// Never returns nil.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Node returns the node currently being processed, or nil at the traversal root.
func (c *Context) Node() *NodeBase { return c.node }

// Depth returns the current nested flow depth.
func (c *Context) Depth() int { return c.depth }

// Services returns the collaborators available to nodes.
func (c *Context) Services() Services { return c.services }

// State returns the client state accessor.
func (c *Context) State() StateAccessor { return c.services.State }

// Keys returns the key simulator.
func (c *Context) Keys() KeySimulator { return c.services.Keys }

// Variables returns the persistent variable store.
func (c *Context) Variables() variable.Store { return c.services.Variables }

// Rand returns the shared random generator.
func (c *Context) Rand() *Random { return c.random }

// Parameters returns the table of last-received avatar parameters.
func (c *Context) Parameters() *ParameterTable { return c.params }

// SendParameter hands an avatar parameter to the OSC transport.
func (c *Context) SendParameter(address string, value any) error {
	if err := c.services.Parameters.SendParameter(address, value); err != nil {
		return err
	}
	c.metrics.RecordParameter(c, "out")
	c.spans.AddSpanEvent(c, "parameter.sent")
	return nil
}

// Processed returns how many Process calls the traversal has made so far.
func (c *Context) Processed() int { return c.memo.processed }

// Fork returns an independent copy of c for a branch that runs on another
// goroutine. The copy starts from the current memo contents; values written
// afterwards on either side are not visible to the other.
func (c *Context) Fork() *Context {
	child := *c
	child.memo = c.memo.clone()
	return &child
}

// Invalidate forgets every memoized value-node result so the next reads
// re-evaluate them. Loops that poll a condition call it between iterations.
func (c *Context) Invalidate() {
	for p := range c.memo.values {
		if p.owner.IsValueNode() {
			delete(c.memo.values, p)
		}
	}
	for b := range c.memo.evaluated {
		delete(c.memo.evaluated, b)
	}
}

// Go runs fn on a new goroutine with a forked Context, for fire-and-forget
// branches. Errors other than cancellation are logged.
//
// Under an Engine the branch outlives the traversal that started it and is
// cancelled when the engine stops; Stop waits for it. Branches started
// while the engine is stopping are dropped. Otherwise the branch is
// cancelled with the traversal.
func (c *Context) Go(fn func(c *Context) error) {
	if c.branches != nil && !c.branches.add() {
		c.logger.Debug("async branch dropped: engine stopping")
		return
	}
	fc := c.Fork()
	stop := func() {}
	if c.lifetime != nil {
		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Context))
		unhook := context.AfterFunc(c.lifetime, cancel)
		fc.Context = ctx
		stop = func() {
			unhook()
			cancel()
		}
	}
	go func() {
		if c.branches != nil {
			defer c.branches.done()
		}
		defer stop()
		if err := fn(fc); err != nil && !IsCancellation(err) {
			fc.logger.Warn("async branch failed", slog.String("error", err.Error()))
		}
	}()
}

// WithContext returns a shallow copy of c carrying ctx. The memo is shared.
func (c *Context) WithContext(ctx context.Context) *Context {
	child := *c
	child.Context = ctx
	return &child
}

// TriggerFlow continues the traversal along out, processing the connected
// node and waiting for it to finish. An unconnected output is a no-op.
//
// Returns the context error if the traversal was cancelled, and a
// *MaxFlowDepthError if the nesting limit is reached.
func (c *Context) TriggerFlow(out *FlowOutput) error {
	if out == nil {
		return nil
	}
	next := c.graph.successor(&out.port)
	if next == nil || next.owner.self == nil {
		return nil
	}
	if err := c.Err(); err != nil {
		return err
	}
	if c.depth >= c.maxDepth {
		return &MaxFlowDepthError{Max: c.maxDepth, NodeID: next.owner.id}
	}
	child := *c
	child.depth++
	return child.process(next.owner, next)
}

// Impulse delivers payload to every ImpulseReceiver listening on name, in
// graph order, and waits for each to finish.
func (c *Context) Impulse(name string, payload any) error {
	for _, n := range c.graph.Nodes() {
		r, ok := n.(ImpulseReceiver)
		if !ok || r.Impulse() != name {
			continue
		}
		if err := c.Err(); err != nil {
			return err
		}
		if c.depth >= c.maxDepth {
			return &MaxFlowDepthError{Max: c.maxDepth, NodeID: n.Base().id}
		}
		child := *c
		child.depth++
		err := child.run(n.Base(), func(nc *Context) error {
			return r.ReceiveImpulse(nc, payload)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// process runs b's Process (or ProcessEntry when entered through a flow input).
func (c *Context) process(b *NodeBase, entry *FlowInput) error {
	return c.run(b, func(nc *Context) error {
		if ep, ok := b.self.(EntryProcessor); ok && entry != nil {
			return ep.ProcessEntry(nc, entry)
		}
		return b.self.Process(nc)
	})
}

// run is the node boundary: it derives the node's Context, recovers panics,
// wraps errors with node identity and records logs, metrics and spans.
func (c *Context) run(b *NodeBase, fn func(nc *Context) error) (err error) {
	nc := *c
	nc.node = b
	nc.logger = observability.EnrichLogger(c.base, c.pulseID, b.id, b.kind)

	spanCtx, span := c.spans.StartNodeSpan(c.Context, b.id, b.kind)
	nc.Context = spanCtx
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				NodeID: b.id,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
			nc.logger.Error("node panicked",
				slog.Any("panic", r),
				slog.String("stack", err.(*PanicError).Stack))
		} else if err != nil && !IsCancellation(err) && !isAttributed(err) {
			err = &NodeError{NodeID: b.id, Kind: b.kind, Op: "process", Err: err}
			observability.LogNodeError(c.base, b.id, b.kind, err)
		}
		c.memo.processed++
		c.metrics.RecordNodeProcess(spanCtx, b.kind, time.Since(start), err)
		c.spans.EndSpanWithError(span, err)
	}()

	return fn(&nc)
}

// isAttributed reports whether err already names the node it came from.
func isAttributed(err error) bool {
	var nodeErr *NodeError
	var panicErr *PanicError
	return errors.As(err, &nodeErr) || errors.As(err, &panicErr)
}

// resolve returns the value of out for this traversal, processing its node
// at most once.
func (c *Context) resolve(out OutputPort) (any, error) {
	p := out.ref()
	if v, ok := c.memo.values[p]; ok {
		return v, nil
	}
	b := p.owner
	if b.self == nil || !b.IsValueNode() {
		return nil, nil
	}
	if err, done := c.memo.evaluated[b]; done {
		return nil, err
	}
	for i, r := range c.memo.resolving {
		if r == b {
			path := make([]string, 0, len(c.memo.resolving)-i+1)
			for _, pr := range c.memo.resolving[i:] {
				path = append(path, pr.id)
			}
			return nil, &CycleError{NodeID: b.id, Path: append(path, b.id)}
		}
	}

	c.memo.resolving = append(c.memo.resolving, b)
	err := c.process(b, nil)
	c.memo.resolving = c.memo.resolving[:len(c.memo.resolving)-1]
	c.memo.evaluated[b] = err
	if err != nil {
		return nil, err
	}
	return c.memo.values[p], nil
}

// store memoizes an output value. When a flow node writes, value nodes that
// depend on it are forgotten so later reads see the new value.
func (c *Context) store(p *port, v any) {
	c.memo.values[p] = v
	b := p.owner
	if b == nil || b.IsValueNode() || c.graph == nil {
		return
	}
	for _, dep := range c.graph.valueDependents(b) {
		delete(c.memo.evaluated, dep)
		for _, o := range dep.outputs {
			delete(c.memo.values, o.ref())
		}
	}
}
