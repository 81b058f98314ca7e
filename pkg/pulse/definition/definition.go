// Package definition loads node graphs from YAML or JSON documents.
//
// A definition lists node instances by registry type tag and connects them
// with links whose endpoints are written "node.port". The port part is either
// the port's declared name or its index among ports of the same shape:
//
//	name: heartbeat
//	nodes:
//	  - id: tick
//	    type: trigger.fire_every
//	    params: {interval: 1s}
//	  - id: say
//	    type: flow.log
//	    defaults: {Message: still here}
//	flows:
//	  - {from: tick.Next, to: say.In}
//
// Build instantiates the nodes through a nodes.Registry and returns a wired
// pulse.Graph.
package definition

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for definition validation and building.
var (
	// ErrInvalidDefinition indicates a structurally invalid document.
	ErrInvalidDefinition = errors.New("invalid graph definition")

	// ErrUnknownNode indicates a link references a node id that is not declared.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownPort indicates a link or default references a port the node does not have.
	ErrUnknownPort = errors.New("unknown port")
)

// Definition is the serialisable form of a graph.
type Definition struct {
	Name  string     `yaml:"name" json:"name"`
	Nodes []NodeSpec `yaml:"nodes" json:"nodes"`
	// Values connects value outputs to value inputs.
	Values []Link `yaml:"values,omitempty" json:"values,omitempty"`
	// Flows connects flow outputs to flow inputs.
	Flows []Link `yaml:"flows,omitempty" json:"flows,omitempty"`
}

// NodeSpec declares one node instance.
type NodeSpec struct {
	ID   string `yaml:"id" json:"id"`
	Type string `yaml:"type" json:"type"`
	// Params are passed to the registry factory.
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	// Defaults set unconnected input values, keyed by input name or index.
	Defaults map[string]any `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// Link connects two endpoints written "node.port".
type Link struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Endpoint is a parsed link end.
type Endpoint struct {
	Node string
	Port string
}

// String implements fmt.Stringer.
func (e Endpoint) String() string { return e.Node + "." + e.Port }

// Index returns the port part as an index when it is numeric.
func (e Endpoint) Index() (int, bool) {
	i, err := strconv.Atoi(e.Port)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// ParseEndpoint splits "node.port" at the last dot, so node ids may contain dots.
func ParseEndpoint(s string) (Endpoint, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Endpoint{}, fmt.Errorf("%w: endpoint %q is not node.port", ErrInvalidDefinition, s)
	}
	return Endpoint{Node: s[:i], Port: s[i+1:]}, nil
}

// Load reads a definition file, choosing the format by extension.
// Supported extensions: .yaml, .yml, .json
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph definition: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return Parse(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported graph definition extension: %s", ext)
	}
}

// Parse decodes a YAML definition. JSON documents are valid YAML and parse too.
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &d, nil
}

// ParseJSON decodes a JSON definition.
func ParseJSON(data []byte) (*Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &d, nil
}

// Validate checks the document's structure without consulting a registry:
// node ids are present and unique, every node has a type, and every link
// endpoint is well formed and names a declared node. All problems are
// joined into the returned error.
func (d *Definition) Validate() error {
	var errs []error

	ids := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, fmt.Errorf("%w: node %d has no id", ErrInvalidDefinition, i))
		case ids[n.ID]:
			errs = append(errs, fmt.Errorf("%w: duplicate node id %q", ErrInvalidDefinition, n.ID))
		}
		if n.Type == "" {
			errs = append(errs, fmt.Errorf("%w: node %q has no type", ErrInvalidDefinition, n.ID))
		}
		ids[n.ID] = true
	}

	check := func(kind string, links []Link) {
		for _, l := range links {
			for _, s := range []string{l.From, l.To} {
				ep, err := ParseEndpoint(s)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s link: %w", kind, err))
					continue
				}
				if !ids[ep.Node] {
					errs = append(errs, fmt.Errorf("%s link %s -> %s: %w: %s", kind, l.From, l.To, ErrUnknownNode, ep.Node))
				}
			}
		}
	}
	check("value", d.Values)
	check("flow", d.Flows)

	return errors.Join(errs...)
}
