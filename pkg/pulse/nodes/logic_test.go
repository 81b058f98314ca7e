package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

func TestIfWithState_Sequence(t *testing.T) {
	g := pulse.NewGraph()
	log := &journal{}
	n := NewIfWithState()
	becameTrue, becameFalse := newMark("BecameTrue", log), newMark("BecameFalse", log)
	stillTrue, stillFalse := newMark("StillTrue", log), newMark("StillFalse", log)
	g.Add(n, becameTrue, becameFalse, stillTrue, stillFalse)
	require.NoError(t, g.ConnectFlow(n.BecameTrue, becameTrue.In))
	require.NoError(t, g.ConnectFlow(n.BecameFalse, becameFalse.In))
	require.NoError(t, g.ConnectFlow(n.StillTrue, stillTrue.In))
	require.NoError(t, g.ConnectFlow(n.StillFalse, stillFalse.In))
	e := newTestEngine(g)

	for _, cond := range []bool{false, true, true, false, false} {
		n.Condition.SetDefault(cond)
		require.NoError(t, e.Trigger(context.Background(), n))
	}

	assert.Equal(t,
		[]string{"StillFalse", "BecameTrue", "StillTrue", "BecameFalse", "StillFalse"},
		log.list())

	n.Reset()
	log.reset()
	n.Condition.SetDefault(false)
	require.NoError(t, e.Trigger(context.Background(), n))
	assert.Equal(t, []string{"StillFalse"}, log.list())
}

func TestIf(t *testing.T) {
	g := pulse.NewGraph()
	log := &journal{}
	n := NewIf()
	yes, no := newMark("yes", log), newMark("no", log)
	g.Add(n, yes, no)
	require.NoError(t, g.ConnectFlow(n.True, yes.In))
	require.NoError(t, g.ConnectFlow(n.False, no.In))
	e := newTestEngine(g)

	n.Condition.SetDefault(true)
	require.NoError(t, e.Trigger(context.Background(), n))
	n.Condition.SetDefault(false)
	require.NoError(t, e.Trigger(context.Background(), n))

	assert.Equal(t, []string{"yes", "no"}, log.list())
}

func TestBoolOps(t *testing.T) {
	tests := []struct {
		a, b          bool
		and, or, notA bool
	}{
		{false, false, false, false, true},
		{true, false, false, true, false},
		{true, true, true, true, false},
	}

	for _, tt := range tests {
		g := pulse.NewGraph()
		and, or, not := NewAnd(), NewOr(), NewNot()
		g.Add(and, or, not)
		and.A.SetDefault(tt.a)
		and.B.SetDefault(tt.b)
		or.A.SetDefault(tt.a)
		or.B.SetDefault(tt.b)
		not.In.SetDefault(tt.a)

		assert.Equal(t, tt.and, read(t, g, and.Out))
		assert.Equal(t, tt.or, read(t, g, or.Out))
		assert.Equal(t, tt.notA, read(t, g, not.Out))
	}
}

func TestEquals(t *testing.T) {
	g := pulse.NewGraph()
	n := NewEquals[string]()
	g.Add(n)
	n.A.SetDefault("fox")
	n.B.SetDefault("fox")
	assert.True(t, read(t, g, n.Out))

	n.B.SetDefault("wolf")
	assert.False(t, read(t, g, n.Out))
}
