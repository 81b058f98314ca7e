package pulse

import (
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// AvatarParameterPrefix is the OSC address prefix of avatar parameters.
const AvatarParameterPrefix = "/avatar/parameters/"

// ParameterAddress expands a bare parameter name to its OSC address.
// Names that already start with "/" are returned unchanged.
func ParameterAddress(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return AvatarParameterPrefix + name
}

// MatchAddress reports whether an OSC address matches pattern.
//
// Patterns use glob syntax over "/"-separated segments: "*" matches within one
// segment, "**" matches any number of segments, "?", "[...]" and "{a,b}" work
// as usual. A pattern without wildcards must match exactly. Malformed patterns
// match nothing.
func MatchAddress(pattern, address string) bool {
	if pattern == address {
		return true
	}
	ok, err := doublestar.Match(pattern, address)
	return err == nil && ok
}

// ValidAddressPattern reports whether pattern is a well-formed address glob.
func ValidAddressPattern(pattern string) bool {
	return strings.HasPrefix(pattern, "/") && doublestar.ValidatePattern(pattern)
}

// ParameterTable holds the last value received for each avatar parameter.
// It is safe for concurrent use.
type ParameterTable struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewParameterTable creates an empty table.
func NewParameterTable() *ParameterTable {
	return &ParameterTable{values: make(map[string]any)}
}

// Set records value as the latest for address.
func (t *ParameterTable) Set(address string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[address] = value
}

// Get returns the latest value for address.
func (t *ParameterTable) Get(address string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[address]
	return v, ok
}

// Match returns the addresses matching pattern, sorted.
func (t *ParameterTable) Match(pattern string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var matched []string
	for addr := range t.values {
		if MatchAddress(pattern, addr) {
			matched = append(matched, addr)
		}
	}
	sort.Strings(matched)
	return matched
}

// Snapshot returns a copy of the table.
func (t *ParameterTable) Snapshot() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]any, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Len returns the number of known parameters.
func (t *ParameterTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Clear forgets every parameter, e.g. after an avatar change.
func (t *ParameterTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = make(map[string]any)
}
