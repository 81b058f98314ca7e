// Package text renders message templates with ${name} placeholders.
//
// Placeholder names follow parameter naming: letters, digits, '_', '.' and
// '/', so ${HeartRate} and ${/avatar/parameters/HeartRate} both work. An
// optional printf verb follows a colon: ${Speed:%.1f}. "$$" renders a
// literal dollar sign.
//
// Templates are parsed once and are safe for concurrent use:
//
//	t := text.MustParse("HR ${HeartRate} bpm")
//	s, err := t.Render(text.Vars(map[string]any{"HeartRate": 72}))
package text

import (
	"fmt"
	"strings"
)

// MissingAction specifies how to handle missing variables.
type MissingAction int

const (
	// MissingKeep keeps the placeholder as-is when the variable is not found.
	// This is the default behavior.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string.
	MissingEmpty

	// MissingError makes Render return an *UndefinedVariableError.
	MissingError
)

// Lookup resolves a placeholder name.
type Lookup func(name string) (v any, ok bool)

// Vars adapts a map to a Lookup.
func Vars(m map[string]any) Lookup {
	return func(name string) (any, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Option configures a Template.
type Option func(*Template)

// WithMissingAction sets how missing variables are handled.
//
// Default: MissingKeep
func WithMissingAction(action MissingAction) Option {
	return func(t *Template) {
		t.missing = action
	}
}

// Template is a parsed message template.
type Template struct {
	src     string
	parts   []part
	missing MissingAction
}

// part is literal text, or a placeholder when name is set.
type part struct {
	text string
	name string
	verb string
}

// Parse parses src. Unterminated or empty placeholders are errors.
func Parse(src string, opts ...Option) (*Template, error) {
	t := &Template{src: src}
	for _, opt := range opts {
		opt(t)
	}

	var lit strings.Builder
	for i := 0; i < len(src); i++ {
		if src[i] != '$' || i+1 >= len(src) {
			lit.WriteByte(src[i])
			continue
		}
		switch src[i+1] {
		case '$':
			lit.WriteByte('$')
			i++
			continue
		case '{':
		default:
			lit.WriteByte('$')
			continue
		}

		end := strings.IndexByte(src[i+2:], '}')
		if end < 0 {
			return nil, fmt.Errorf("template %q: unterminated placeholder at %d", src, i)
		}
		body := src[i+2 : i+2+end]
		name, verb, _ := strings.Cut(body, ":")
		if !validName(name) {
			return nil, fmt.Errorf("template %q: invalid placeholder %q", src, body)
		}
		if verb != "" && !strings.HasPrefix(verb, "%") {
			return nil, fmt.Errorf("template %q: format %q must start with %%", src, verb)
		}
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{text: lit.String()})
			lit.Reset()
		}
		t.parts = append(t.parts, part{name: name, verb: verb, text: "${" + body + "}"})
		i += 2 + end
	}
	if lit.Len() > 0 {
		t.parts = append(t.parts, part{text: lit.String()})
	}
	return t, nil
}

// MustParse is Parse that panics on error.
func MustParse(src string, opts ...Option) *Template {
	t, err := Parse(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("text: %v", err))
	}
	return t
}

// String returns the source text.
func (t *Template) String() string { return t.src }

// Names returns the placeholder names in order of appearance.
func (t *Template) Names() []string {
	var names []string
	for _, p := range t.parts {
		if p.name != "" {
			names = append(names, p.name)
		}
	}
	return names
}

// Render substitutes every placeholder using lookup.
// Errors are only returned when MissingAction is MissingError and
// a variable is not found.
func (t *Template) Render(lookup Lookup) (string, error) {
	var b strings.Builder
	var missing []string
	for _, p := range t.parts {
		if p.name == "" {
			b.WriteString(p.text)
			continue
		}
		var v any
		ok := false
		if lookup != nil {
			v, ok = lookup(p.name)
		}
		switch {
		case ok && p.verb != "":
			fmt.Fprintf(&b, p.verb, v)
		case ok:
			fmt.Fprint(&b, v)
		case t.missing == MissingEmpty:
		case t.missing == MissingError:
			missing = append(missing, p.name)
		default:
			b.WriteString(p.text)
		}
	}
	if len(missing) > 0 {
		return "", &UndefinedVariableError{Names: missing}
	}
	return b.String(), nil
}

// UndefinedVariableError is returned when MissingError is set and
// one or more variables are not found.
type UndefinedVariableError struct {
	// Names is the list of undefined variable names.
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// Expand renders src once with MissingKeep. Invalid templates are returned unchanged.
func Expand(src string, vars map[string]any) string {
	t, err := Parse(src)
	if err != nil {
		return src
	}
	s, _ := t.Render(Vars(vars))
	return s
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '.' || r == '/':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
