package pulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// Engine drives a graph: it runs the trigger sources, re-evaluates updaters
// every tick and dispatches parameters and events to the nodes that listen
// for them. Every stimulus starts its own traversal with a fresh Context.
//
// A failing traversal is logged and counted; it never stops the sources.
//
// Example:
//
//	engine := pulse.NewEngine(g,
//	    pulse.WithLogger(logger),
//	    pulse.WithServices(pulse.Services{Parameters: oscClient}),
//	)
//	if err := engine.Start(ctx); err != nil {
//	    return err
//	}
//	defer engine.Stop()
//
//	// From the OSC receive loop:
//	engine.OnParameterReceived(ctx, address, value)
type Engine struct {
	graph  *Graph
	cfg    engineConfig
	params *ParameterTable

	// lifecycle serialises Start, Stop and Edit.
	lifecycle sync.Mutex
	running   atomic.Bool
	parent    context.Context
	runCtx    context.Context
	cancel    context.CancelFunc
	sources   sync.WaitGroup
	branches  branchGroup
	started   time.Time

	// liveMu guards live, nextID and runCtx.
	liveMu sync.Mutex
	live   map[uint64]context.CancelFunc
	nextID uint64
}

// NewEngine creates an engine for g. The engine is idle until Start.
func NewEngine(g *Graph, opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.services = cfg.services.withDefaults()
	return &Engine{
		graph:  g,
		cfg:    cfg,
		params: NewParameterTable(),
		live:   make(map[uint64]context.CancelFunc),
	}
}

// Graph returns the graph the engine drives.
func (e *Engine) Graph() *Graph { return e.graph }

// Parameters returns the table of last-received avatar parameters.
func (e *Engine) Parameters() *ParameterTable { return e.params }

// Running reports whether the engine has been started and not stopped.
func (e *Engine) Running() bool { return e.running.Load() }

// Start launches every Source on its own goroutine and the updater tick loop,
// then dispatches EventEngineStarted. The engine runs until Stop is called or
// ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if err := e.startLocked(ctx); err != nil {
		return err
	}
	_ = e.Dispatch(e.runCtx, Event{Kind: EventEngineStarted})
	return nil
}

func (e *Engine) startLocked(ctx context.Context) error {
	if e.running.Load() {
		return ErrEngineRunning
	}

	var sources []Source
	var updaters []Updater
	for _, n := range e.graph.Nodes() {
		if s, ok := n.(Source); ok {
			sources = append(sources, s)
		}
		if u, ok := n.(Updater); ok {
			updaters = append(updaters, u)
		}
	}

	e.parent = ctx
	e.liveMu.Lock()
	e.runCtx, e.cancel = context.WithCancel(ctx)
	e.liveMu.Unlock()
	e.started = time.Now()
	e.running.Store(true)

	observability.LogEngineStart(e.cfg.logger, e.graph.Len(), len(sources), len(updaters), e.cfg.tick)

	for _, s := range sources {
		e.sources.Add(1)
		go e.runSource(e.runCtx, s)
	}
	if len(updaters) > 0 {
		e.sources.Add(1)
		go e.tickLoop(e.runCtx, updaters)
	}
	return nil
}

// Stop dispatches EventEngineStopped, cancels every live traversal and waits
// for sources and async branches to return. It must not be called from inside
// a traversal. Stopping an idle engine is a no-op.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running.Load() {
		return
	}
	_ = e.Dispatch(e.runCtx, Event{Kind: EventEngineStopped})

	e.running.Store(false)
	e.cancel()
	e.cancelLive()
	e.sources.Wait()
	e.branches.drain()

	observability.LogEngineStop(e.cfg.logger, time.Since(e.started))
}

// Edit applies fn to the graph while no traversal is running. A running
// engine is stopped first and restarted afterwards, so node sets and
// connections can change safely. It must not be called from inside a traversal.
func (e *Engine) Edit(fn func(g *Graph) error) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	wasRunning := e.running.Load()
	parent := e.parent
	if wasRunning {
		e.stopLocked()
	}

	err := fn(e.graph)

	if wasRunning {
		if startErr := e.startLocked(parent); startErr != nil {
			return errors.Join(err, startErr)
		}
		_ = e.Dispatch(e.runCtx, Event{Kind: EventEngineStarted})
	}
	return err
}

// Pulse runs fn as a traversal rooted at root. It implements Pulser.
//
// The traversal gets a fresh Context (new pulse ID, empty memo) derived from
// ctx; Stop cancels it. Panics and errors are recovered at root's node
// boundary, logged, counted and returned.
func (e *Engine) Pulse(ctx context.Context, root Node, fn func(c *Context) error) (err error) {
	b := root.Base()
	pctx, cancel := context.WithCancel(ctx)
	id := e.track(cancel)
	defer e.untrack(id)
	defer cancel()

	pulseID := uuid.New().String()
	source := b.Kind()
	spanCtx, span := e.cfg.spans.StartPulseSpan(pctx, pulseID, source, b.ID())

	c := &Context{
		Context:  spanCtx,
		pulseID:  pulseID,
		source:   source,
		graph:    e.graph,
		base:     e.cfg.logger,
		logger:   e.cfg.logger.With(slog.String("pulse_id", pulseID)),
		services: e.cfg.services,
		random:   e.cfg.random,
		params:   e.params,
		metrics:  e.cfg.metrics,
		spans:    e.cfg.spans,
		maxDepth: e.cfg.maxDepth,
		memo:     newMemo(),
		branches: &e.branches,
		lifetime: e.lifetime(ctx),
	}

	observability.LogPulseStart(e.cfg.logger, pulseID, source, b.ID())
	done := observability.TimedOperation()
	start := time.Now()

	err = c.run(b, fn)

	e.cfg.metrics.RecordPulse(spanCtx, source, time.Since(start), err)
	e.cfg.spans.EndSpanWithError(span, err)

	switch {
	case err == nil:
		observability.LogPulseComplete(e.cfg.logger, pulseID, done(), c.Processed())
	case IsCancellation(err):
		observability.LogPulseCancelled(e.cfg.logger, pulseID, b.ID())
	default:
		observability.LogPulseError(e.cfg.logger, pulseID, err, done(), b.ID())
	}
	return err
}

// Trigger runs a manual traversal rooted at n, as a button or editor would.
// n must belong to the engine's graph and have flow ports.
func (e *Engine) Trigger(ctx context.Context, n Node) error {
	b := n.Base()
	if b.graph != e.graph {
		return fmt.Errorf("%w: %s", ErrNodeNotInGraph, b.ID())
	}
	if b.IsValueNode() {
		return fmt.Errorf("%w: %s", ErrNotFlowNode, b.ID())
	}
	return e.Pulse(ctx, n, func(c *Context) error {
		if ep, ok := n.(EntryProcessor); ok && len(b.flowIns) > 0 {
			return ep.ProcessEntry(c, b.flowIns[0])
		}
		return n.Process(c)
	})
}

// OnParameterReceived records an inbound avatar parameter and runs every
// ParameterListener whose patterns match address, each in its own
// traversal, before returning. The returned error joins the failures.
func (e *Engine) OnParameterReceived(ctx context.Context, address string, value any) error {
	e.params.Set(address, value)
	e.cfg.metrics.RecordParameter(ctx, "in")

	var errs []error
	for _, n := range e.graph.Nodes() {
		l, ok := n.(ParameterListener)
		if !ok || !listens(l, address) {
			continue
		}
		err := e.Pulse(ctx, n, func(c *Context) error {
			return l.OnParameter(c, address, value)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func listens(l ParameterListener, address string) bool {
	for _, pattern := range l.Addresses() {
		if MatchAddress(pattern, address) {
			return true
		}
	}
	return false
}

// Dispatch delivers ev to every EventReceiver that accepts its kind, each in
// its own traversal, in graph order. The returned error joins the failures.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range e.graph.Nodes() {
		r, ok := n.(EventReceiver)
		if !ok || !r.Accepts(ev.Kind) {
			continue
		}
		err := e.Pulse(ctx, n, func(c *Context) error {
			return r.HandleEvent(c, ev)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runSource runs one Source until ctx is cancelled.
func (e *Engine) runSource(ctx context.Context, s Source) {
	defer e.sources.Done()
	defer func() {
		if r := recover(); r != nil {
			e.cfg.logger.Error("source panicked",
				slog.String("node_id", s.Base().ID()),
				slog.Any("panic", r))
		}
	}()
	if err := s.Run(ctx, e); err != nil && !IsCancellation(err) {
		e.cfg.logger.Warn("source stopped",
			slog.String("node_id", s.Base().ID()),
			slog.String("error", err.Error()))
	}
}

// tickLoop re-evaluates updaters at the configured tick rate.
func (e *Engine) tickLoop(ctx context.Context, updaters []Updater) {
	defer e.sources.Done()
	ticker := time.NewTicker(e.cfg.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, u := range updaters {
				if ctx.Err() != nil {
					return
				}
				_ = e.Pulse(ctx, u, u.Update)
			}
		}
	}
}

// lifetime returns the context async branches live under: the engine's run
// context while started, else the caller's.
func (e *Engine) lifetime(ctx context.Context) context.Context {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()
	if e.running.Load() && e.runCtx != nil {
		return e.runCtx
	}
	return ctx
}

func (e *Engine) track(cancel context.CancelFunc) uint64 {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()
	e.nextID++
	e.live[e.nextID] = cancel
	return e.nextID
}

func (e *Engine) untrack(id uint64) {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()
	delete(e.live, id)
}

func (e *Engine) cancelLive() {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()
	for _, cancel := range e.live {
		cancel()
	}
}

// branchGroup counts async branches. While drain waits, add refuses new
// branches so the count only falls.
type branchGroup struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	draining bool
}

func (g *branchGroup) add() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.draining {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *branchGroup) done() { g.wg.Done() }

// drain waits for every admitted branch, then admits new ones again.
func (g *branchGroup) drain() {
	g.mu.Lock()
	g.draining = true
	g.mu.Unlock()
	g.wg.Wait()
	g.mu.Lock()
	g.draining = false
	g.mu.Unlock()
}
