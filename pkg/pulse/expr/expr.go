package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax indicates an expression could not be parsed.
var ErrSyntax = errors.New("expression syntax error")

// SyntaxError reports where parsing failed.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d: %s", ErrSyntax, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func syntaxErr(pos int, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// BinaryOp is a function that compares two values and returns a boolean result.
type BinaryOp func(left, right any) bool

// Lookup resolves an identifier. ok is false for unknown names.
type Lookup func(name string) (v any, ok bool)

// Vars adapts a map to a Lookup.
func Vars(m map[string]any) Lookup {
	return func(name string) (any, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Option configures compilation.
type Option func(*compiler)

// WithOperator registers a custom binary operator used as "left name right".
// The name must be an identifier and should not shadow a keyword.
func WithOperator(name string, fn BinaryOp) Option {
	return func(c *compiler) {
		c.ops[name] = fn
	}
}

// Expr is a compiled expression.
type Expr struct {
	src  string
	root node
}

// Compile parses src. An empty expression always evaluates to false.
func Compile(src string, opts ...Option) (*Expr, error) {
	c := &compiler{ops: map[string]BinaryOp{"contains": contains}}
	for _, opt := range opts {
		opt(c)
	}
	if strings.TrimSpace(src) == "" {
		return &Expr{src: src, root: literal{false}}, nil
	}

	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	c.toks = toks
	root, err := c.parseOr()
	if err != nil {
		return nil, err
	}
	if t := c.peek(); t.kind != tokEOF {
		return nil, syntaxErr(t.pos, "unexpected %q", t.text)
	}
	return &Expr{src: src, root: root}, nil
}

// MustCompile is Compile that panics on error. Use it for expressions fixed in code.
func MustCompile(src string, opts ...Option) *Expr {
	e, err := Compile(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("expr: %v", err))
	}
	return e
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression. A nil lookup resolves every identifier to nil.
func (e *Expr) Eval(lookup Lookup) (bool, error) {
	if lookup == nil {
		lookup = func(string) (any, bool) { return nil, false }
	}
	v, err := e.root.eval(lookup)
	if err != nil {
		return false, err
	}
	return IsTruthy(v), nil
}

// Eval compiles and evaluates src against vars in one step.
func Eval(src string, vars map[string]any) (bool, error) {
	e, err := Compile(src)
	if err != nil {
		return false, err
	}
	return e.Eval(Vars(vars))
}

// Identifiers returns the distinct identifiers src refers to, in order of
// first use.
func (e *Expr) Identifiers() []string {
	var names []string
	seen := map[string]bool{}
	walk(e.root, func(n node) {
		if id, ok := n.(ident); ok && !seen[string(id)] {
			seen[string(id)] = true
			names = append(names, string(id))
		}
	})
	return names
}

type node interface {
	eval(Lookup) (any, error)
}

type literal struct{ v any }

func (l literal) eval(Lookup) (any, error) { return l.v, nil }

type ident string

func (i ident) eval(lookup Lookup) (any, error) {
	v, _ := lookup(string(i))
	return v, nil
}

type not struct{ x node }

func (n not) eval(lookup Lookup) (any, error) {
	v, err := n.x.eval(lookup)
	if err != nil {
		return nil, err
	}
	return !IsTruthy(v), nil
}

type logical struct {
	and  bool
	l, r node
}

func (n logical) eval(lookup Lookup) (any, error) {
	lv, err := n.l.eval(lookup)
	if err != nil {
		return nil, err
	}
	if IsTruthy(lv) != n.and {
		// false and _ / true or _
		return !n.and, nil
	}
	rv, err := n.r.eval(lookup)
	if err != nil {
		return nil, err
	}
	return IsTruthy(rv), nil
}

type compare struct {
	fn   BinaryOp
	l, r node
}

func (n compare) eval(lookup Lookup) (any, error) {
	lv, err := n.l.eval(lookup)
	if err != nil {
		return nil, err
	}
	rv, err := n.r.eval(lookup)
	if err != nil {
		return nil, err
	}
	return n.fn(lv, rv), nil
}

func walk(n node, fn func(node)) {
	fn(n)
	switch n := n.(type) {
	case not:
		walk(n.x, fn)
	case logical:
		walk(n.l, fn)
		walk(n.r, fn)
	case compare:
		walk(n.l, fn)
		walk(n.r, fn)
	}
}

type compiler struct {
	toks []token
	pos  int
	ops  map[string]BinaryOp
}

func (c *compiler) peek() token { return c.toks[c.pos] }

func (c *compiler) next() token {
	t := c.toks[c.pos]
	if t.kind != tokEOF {
		c.pos++
	}
	return t
}

func (c *compiler) accept(words ...string) bool {
	t := c.peek()
	if t.kind != tokIdent && t.kind != tokOp {
		return false
	}
	for _, w := range words {
		if t.text == w {
			c.pos++
			return true
		}
	}
	return false
}

func (c *compiler) parseOr() (node, error) {
	left, err := c.parseAnd()
	if err != nil {
		return nil, err
	}
	for c.accept("or", "||") {
		right, err := c.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logical{and: false, l: left, r: right}
	}
	return left, nil
}

func (c *compiler) parseAnd() (node, error) {
	left, err := c.parseUnary()
	if err != nil {
		return nil, err
	}
	for c.accept("and", "&&") {
		right, err := c.parseUnary()
		if err != nil {
			return nil, err
		}
		left = logical{and: true, l: left, r: right}
	}
	return left, nil
}

func (c *compiler) parseUnary() (node, error) {
	if c.accept("not", "!") {
		x, err := c.parseUnary()
		if err != nil {
			return nil, err
		}
		return not{x}, nil
	}
	return c.parseComparison()
}

func (c *compiler) parseComparison() (node, error) {
	left, err := c.parseOperand()
	if err != nil {
		return nil, err
	}
	t := c.peek()
	var fn BinaryOp
	switch {
	case t.kind == tokOp:
		fn = builtin[t.text]
	case t.kind == tokIdent:
		fn = c.ops[t.text]
	}
	if fn == nil {
		return left, nil
	}
	c.next()
	right, err := c.parseOperand()
	if err != nil {
		return nil, err
	}
	return compare{fn: fn, l: left, r: right}, nil
}

func (c *compiler) parseOperand() (node, error) {
	t := c.next()
	switch t.kind {
	case tokLParen:
		inner, err := c.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := c.next(); closing.kind != tokRParen {
			return nil, syntaxErr(closing.pos, "expected )")
		}
		return inner, nil
	case tokString:
		return literal{t.text}, nil
	case tokNumber:
		if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return literal{i}, nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, syntaxErr(t.pos, "bad number %q", t.text)
		}
		return literal{f}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return literal{true}, nil
		case "false":
			return literal{false}, nil
		case "null", "nil":
			return literal{nil}, nil
		case "and", "or", "not", "contains":
			return nil, syntaxErr(t.pos, "unexpected keyword %q", t.text)
		}
		return ident(t.text), nil
	case tokEOF:
		return nil, syntaxErr(t.pos, "unexpected end of expression")
	default:
		return nil, syntaxErr(t.pos, "unexpected %q", t.text)
	}
}
