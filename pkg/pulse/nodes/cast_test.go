package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

func TestCast_FloatToIntTruncates(t *testing.T) {
	g := pulse.NewGraph()
	n := NewCast[float32, int]()
	g.Add(n)
	n.In.SetDefault(3.7)

	first := read(t, g, n.Out)
	second := read(t, g, n.Out)
	assert.Equal(t, 3, first)
	assert.Equal(t, first, second, "conversion is deterministic")
	assert.Equal(t, "cast.float.int", n.Kind())
}

func TestCast_UnparsableStringFails(t *testing.T) {
	g := pulse.NewGraph()
	n := NewCast[string, int]()
	g.Add(n)
	n.In.SetDefault("abc")

	_, err := n.Out.Read(newTestContext(g))
	require.Error(t, err)

	var castErr *pulse.CastError
	assert.ErrorAs(t, err, &castErr)
	var nodeErr *pulse.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, n.ID(), nodeErr.NodeID)
}

func TestCast_FailureRepeatsWithinTraversal(t *testing.T) {
	g := pulse.NewGraph()
	n := NewCast[string, int]()
	g.Add(n)
	n.In.SetDefault("abc")

	c := newTestContext(g)
	_, err := n.Out.Read(c)
	require.Error(t, err)

	v, err := n.Out.Read(c)
	var castErr *pulse.CastError
	assert.ErrorAs(t, err, &castErr)
	assert.Zero(t, v)
}

func TestCast_RejectsUnrepresentable(t *testing.T) {
	g := pulse.NewGraph()
	huge := NewCast[float32, int]()
	blank := NewCast[string, int]()
	blankBool := NewCast[string, bool]()
	g.Add(huge, blank, blankBool)
	huge.In.SetDefault(1e30)

	c := newTestContext(g)
	var castErr *pulse.CastError
	_, err := huge.Out.Read(c)
	assert.ErrorAs(t, err, &castErr)
	_, err = blank.Out.Read(c)
	assert.ErrorAs(t, err, &castErr)
	_, err = blankBool.Out.Read(c)
	assert.ErrorAs(t, err, &castErr)
}

func TestCast_Conversions(t *testing.T) {
	g := pulse.NewGraph()
	toBool := NewCast[int, bool]()
	toString := NewCast[float32, string]()
	fromString := NewCast[string, float32]()
	g.Add(toBool, toString, fromString)

	toBool.In.SetDefault(2)
	toString.In.SetDefault(3.7)
	fromString.In.SetDefault("0.25")

	assert.True(t, read(t, g, toBool.Out))
	assert.Equal(t, "3.7", read(t, g, toString.Out))
	assert.Equal(t, float32(0.25), read(t, g, fromString.Out))
}
