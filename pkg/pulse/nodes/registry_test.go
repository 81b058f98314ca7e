package nodes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

func TestDefault_EveryTypeBuilds(t *testing.T) {
	reg := Default()
	require.Greater(t, reg.Len(), 50)

	for _, info := range reg.Types() {
		t.Run(info.Tag, func(t *testing.T) {
			n, err := reg.New(info.Tag, nil)
			require.NoError(t, err)
			assert.Equal(t, info.Tag, n.Base().Kind(), "kind matches registered tag")
			assert.NotEmpty(t, info.Description)
		})
	}
}

func TestDefault_ContainsCoreTypes(t *testing.T) {
	reg := Default()
	for _, tag := range []string{
		"math.remap", "math.remap0111", "math.remap1101",
		"cast.float.int", "cast.string.int",
		"random.float", "random.int", "random.bool",
		"flow.if_with_state", "trigger.fire_every", "trigger.button",
		"trigger.fire_while_false", "trigger.fire_on_change.int",
		"event.on_parameter.bool", "osc.send_parameter.float",
	} {
		assert.True(t, reg.Has(tag), tag)
	}
	assert.False(t, reg.Has("cast.int.int"))
}

func TestRegistry_Params(t *testing.T) {
	reg := Default()

	t.Run("duration strings", func(t *testing.T) {
		n, err := reg.New("trigger.fire_every", Params{"interval": "250ms"})
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, n.(*FireEvery).Interval)
	})

	t.Run("weakly typed values", func(t *testing.T) {
		n, err := reg.New("flow.sequence", Params{"count": "3"})
		require.NoError(t, err)
		assert.Len(t, n.(*Sequence).Branches, 3)

		c, err := reg.New("value.constant.float", Params{"value": 2})
		require.NoError(t, err)
		assert.Equal(t, float32(2), c.(*Constant[float32]).Value)
	})

	t.Run("structured values", func(t *testing.T) {
		n, err := reg.New("value.constant.vector3", Params{"value": map[string]any{"x": 1, "y": 2, "z": 3}})
		require.NoError(t, err)
		assert.Equal(t, pulse.Vector3{X: 1, Y: 2, Z: 3}, n.(*Constant[pulse.Vector3]).Value)

		k, err := reg.New("keys.press", Params{"key": "F1", "modifiers": []any{"ctrl", "shift"}})
		require.NoError(t, err)
		assert.Equal(t, "ctrl+shift+F1", k.(*Keybind).Keys.String())
	})

	t.Run("unknown params are rejected", func(t *testing.T) {
		_, err := reg.New("math.remap", Params{"colour": "red"})
		assert.Error(t, err)

		_, err = reg.New("trigger.fire_every", Params{"intervall": "1s"})
		assert.Error(t, err)
	})
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry()
	f := simple(NewNot)

	require.NoError(t, reg.Register("logic.not", "Negation", f))
	assert.ErrorIs(t, reg.Register("logic.not", "again", f), ErrDuplicateType)
	assert.Error(t, reg.Register("", "", f))
	assert.Panics(t, func() { reg.MustRegister("logic.not", "again", f) })

	_, err := reg.New("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "float", TypeName[float32]())
	assert.Equal(t, "double", TypeName[float64]())
	assert.Equal(t, "vector3", TypeName[pulse.Vector3]())
	assert.Equal(t, "pulse.Avatar", TypeName[pulse.Avatar]())
}
