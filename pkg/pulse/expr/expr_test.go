package expr

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	vars := map[string]any{
		"GestureLeft":                  int32(3),
		"Speed":                        float32(2.5),
		"Muted":                        true,
		"AFK":                          false,
		"Name":                         "Fox",
		"Status":                       "ready",
		"/avatar/parameters/Face.Blep": 1,
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty is false", "", false},
		{"int equality across widths", "GestureLeft == 3", true},
		{"int inequality", "GestureLeft != 3", false},
		{"float ordering", "Speed > 1.5", true},
		{"float ordering false", "Speed <= 2", false},
		{"greater or equal", "Speed >= 2.5", true},
		{"negative literal", "Speed > -1", true},
		{"bool equality", "Muted == true", true},
		{"bool compares as number", "Muted == 1", true},
		{"string equality single quotes", "Name == 'Fox'", true},
		{"string equality double quotes", `Name == "Wolf"`, false},
		{"numeric string ordering", "'10' > 9", true},
		{"contains", "Status contains 'ead'", true},
		{"bare truthy", "Muted", true},
		{"bare falsy", "AFK", false},
		{"bang", "!AFK", true},
		{"not keyword", "not Muted", false},
		{"not binds tighter than and", "not AFK and Muted", true},
		{"and binds tighter than or", "AFK and Muted or Name == 'Fox'", true},
		{"or then and", "Muted or AFK and AFK", true},
		{"parentheses", "(Muted or AFK) and AFK", false},
		{"symbolic operators", "Muted && !AFK || AFK", true},
		{"nested parentheses", "((GestureLeft == 3))", true},
		{"address identifiers", "/avatar/parameters/Face.Blep == 1", true},
		{"unknown identifier is nil", "Missing == null", true},
		{"unknown identifier is falsy", "Missing", false},
		{"unknown identifier orders as zero", "Missing < 1", true},
		{"nil only equals nil", "Name == nil", false},
		{"literal true", "true", true},
		{"zero literal", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	for _, src := range []string{
		"Speed >",
		"(Muted",
		"Muted)",
		"Name == 'unterminated",
		"Speed # 2",
		"and Muted",
		"Muted Muted",
		"1.2.3 == x",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)

			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}

	assert.Panics(t, func() { MustCompile("(") })
}

func TestExpr_Reuse(t *testing.T) {
	e := MustCompile("GestureRight == 2 and Grounded")
	assert.Equal(t, "GestureRight == 2 and Grounded", e.String())
	assert.Equal(t, []string{"GestureRight", "Grounded"}, e.Identifiers())

	frames := []struct {
		vars map[string]any
		want bool
	}{
		{map[string]any{"GestureRight": 2, "Grounded": true}, true},
		{map[string]any{"GestureRight": 2, "Grounded": false}, false},
		{map[string]any{"GestureRight": 1, "Grounded": true}, false},
	}
	for i, f := range frames {
		got, err := e.Eval(Vars(f.vars))
		require.NoError(t, err)
		assert.Equal(t, f.want, got, "frame %d", i)
	}

	got, err := e.Eval(nil)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestExpr_ShortCircuit(t *testing.T) {
	var looked []string
	lookup := func(name string) (any, bool) {
		looked = append(looked, name)
		return name == "yes", true
	}

	_, err := MustCompile("no and yes").Eval(func(n string) (any, bool) { return lookup(n) })
	require.NoError(t, err)
	assert.Equal(t, []string{"no"}, looked)

	looked = nil
	_, err = MustCompile("yes or no").Eval(lookup)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes"}, looked)
}

func TestWithOperator(t *testing.T) {
	matches := WithOperator("matches", func(l, r any) bool {
		ok, _ := regexp.MatchString(fmt.Sprint(r), fmt.Sprint(l))
		return ok
	})

	e, err := Compile("Name matches '^F.x$'", matches)
	require.NoError(t, err)
	got, err := e.Eval(Vars(map[string]any{"Name": "Fox"}))
	require.NoError(t, err)
	assert.True(t, got)

	_, err = Compile("Name matches 'x'")
	assert.ErrorIs(t, err, ErrSyntax, "unregistered operators do not parse")
}

func TestValueHelpers(t *testing.T) {
	truthy := []struct {
		v    any
		want bool
	}{
		{nil, false}, {false, false}, {true, true},
		{"", false}, {"x", true},
		{0, false}, {int64(2), true}, {float32(0), false}, {0.5, true},
		{struct{}{}, true},
	}
	for _, tt := range truthy {
		assert.Equal(t, tt.want, IsTruthy(tt.v), "%#v", tt.v)
	}

	assert.Equal(t, 2.5, ToFloat64("2.5"))
	assert.Equal(t, 0.0, ToFloat64("abc"))
	assert.Equal(t, 1.0, ToFloat64(true))
	assert.Equal(t, 7.0, ToFloat64(uint8(7)))

	assert.True(t, Equal(int32(3), 3.0))
	assert.True(t, Equal("a", "a"))
	assert.False(t, Equal(nil, 0))
}
