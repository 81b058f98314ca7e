/*
Package expr compiles boolean conditions over avatar parameters and other
named values.

# Expression Syntax

	<expr>       := <and> { ('or' | '||') <and> }
	<and>        := <unary> { ('and' | '&&') <unary> }
	<unary>      := ('not' | '!') <unary> | <comparison>
	<comparison> := <operand> [ <op> <operand> ]
	<op>         := '==' | '!=' | '<' | '>' | '<=' | '>=' | 'contains' | custom
	<operand>    := '(' <expr> ')' | 'string' | "string" | number
	              | true | false | null | identifier

'or' binds loosest, then 'and', then 'not'. Identifiers may contain letters,
digits, '_', '.' and '/', so both short parameter names (GestureLeft) and
full OSC addresses (/avatar/parameters/GestureLeft) are valid.

# Semantics

Equality compares numerically when both sides are numbers or booleans
(true is 1), as nil only against nil, and otherwise by their %v text.
Ordering operators compare numerically; values that are not numbers read
as 0. Identifiers the Lookup does not know resolve to nil. A bare operand
is tested for truthiness: nil, false, "" and zero are false.

# Usage

	cond, err := expr.Compile("GestureLeft == 3 and VelocityMagnitude > 1.5")
	if err != nil {
	    return err
	}
	ok, err := cond.Eval(expr.Vars(map[string]any{"GestureLeft": 3, "VelocityMagnitude": 2.0}))

Compiled expressions are immutable and safe for concurrent use.

# Custom Operators

	cond, _ := expr.Compile("name matches '^test'", expr.WithOperator("matches", func(l, r any) bool {
	    ok, _ := regexp.MatchString(fmt.Sprint(r), fmt.Sprint(l))
	    return ok
	}))
*/
package expr
