package definition

import (
	"fmt"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/nodes"
)

// Build validates d and instantiates it through reg. Node ids from the
// definition become the node IDs in the returned graph.
func (d *Definition) Build(reg *nodes.Registry) (*pulse.Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	g := pulse.NewGraph()
	for _, spec := range d.Nodes {
		n, err := reg.New(spec.Type, spec.Params)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.ID, err)
		}
		n.Base().SetID(spec.ID)
		if err := applyDefaults(n.Base(), spec.Defaults); err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.ID, err)
		}
		g.Add(n)
	}

	for _, l := range d.Values {
		out, in, err := valuePorts(g, l)
		if err != nil {
			return nil, err
		}
		if err := g.ConnectPorts(out, in); err != nil {
			return nil, fmt.Errorf("value link %s -> %s: %w", l.From, l.To, err)
		}
	}

	for _, l := range d.Flows {
		out, in, err := flowPorts(g, l)
		if err != nil {
			return nil, err
		}
		if err := g.ConnectFlow(out, in); err != nil {
			return nil, fmt.Errorf("flow link %s -> %s: %w", l.From, l.To, err)
		}
	}

	return g, nil
}

// LoadGraph loads the definition at path and builds it with reg.
func LoadGraph(path string, reg *nodes.Registry) (*pulse.Graph, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	return d.Build(reg)
}

func applyDefaults(b *pulse.NodeBase, defaults map[string]any) error {
	for key, v := range defaults {
		in, ok := lookup(b.Inputs(), key, b.Input)
		if !ok {
			return fmt.Errorf("%w: input %s", ErrUnknownPort, key)
		}
		if err := in.SetDefaultAny(v); err != nil {
			return err
		}
	}
	return nil
}

func valuePorts(g *pulse.Graph, l Link) (pulse.OutputPort, pulse.InputPort, error) {
	from, to, err := endpoints(g, l)
	if err != nil {
		return nil, nil, err
	}
	out, ok := lookup(from.b.Outputs(), from.ep.Port, from.b.Output)
	if !ok {
		return nil, nil, fmt.Errorf("value link %s -> %s: %w: output %s", l.From, l.To, ErrUnknownPort, from.ep)
	}
	in, ok := lookup(to.b.Inputs(), to.ep.Port, to.b.Input)
	if !ok {
		return nil, nil, fmt.Errorf("value link %s -> %s: %w: input %s", l.From, l.To, ErrUnknownPort, to.ep)
	}
	return out, in, nil
}

func flowPorts(g *pulse.Graph, l Link) (*pulse.FlowOutput, *pulse.FlowInput, error) {
	from, to, err := endpoints(g, l)
	if err != nil {
		return nil, nil, err
	}
	out, ok := lookup(from.b.FlowOutputs(), from.ep.Port, from.b.FlowOutput)
	if !ok {
		return nil, nil, fmt.Errorf("flow link %s -> %s: %w: flow output %s", l.From, l.To, ErrUnknownPort, from.ep)
	}
	in, ok := lookup(to.b.FlowInputs(), to.ep.Port, to.b.FlowInput)
	if !ok {
		return nil, nil, fmt.Errorf("flow link %s -> %s: %w: flow input %s", l.From, l.To, ErrUnknownPort, to.ep)
	}
	return out, in, nil
}

type resolved struct {
	ep Endpoint
	b  *pulse.NodeBase
}

func endpoints(g *pulse.Graph, l Link) (from, to resolved, err error) {
	for i, s := range []string{l.From, l.To} {
		ep, perr := ParseEndpoint(s)
		if perr != nil {
			return from, to, perr
		}
		n, ok := g.Node(ep.Node)
		if !ok {
			return from, to, fmt.Errorf("%w: %s", ErrUnknownNode, ep.Node)
		}
		r := resolved{ep: ep, b: n.Base()}
		if i == 0 {
			from = r
		} else {
			to = r
		}
	}
	return from, to, nil
}

// lookup finds a port by name first, then by index.
func lookup[P any](ports []P, key string, byName func(string) (P, bool)) (P, bool) {
	if p, ok := byName(key); ok {
		return p, true
	}
	if i, ok := (Endpoint{Port: key}).Index(); ok && i < len(ports) {
		return ports[i], true
	}
	var zero P
	return zero, false
}
