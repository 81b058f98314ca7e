package nodes

import (
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

type intervalParams struct {
	Interval time.Duration `mapstructure:"interval"`
}

type addressParams struct {
	Address string `mapstructure:"address"`
}

type nameParams struct {
	Name string `mapstructure:"name"`
}

type countParams struct {
	Count int `mapstructure:"count"`
}

type expressionParams struct {
	Expression string `mapstructure:"expression"`
}

type templateParams struct {
	Template string `mapstructure:"template"`
}

type keyParams struct {
	Key       string   `mapstructure:"key"`
	Modifiers []string `mapstructure:"modifiers"`
}

func (p keyParams) keybind() pulse.Keybind {
	return pulse.Keybind{Key: p.Key, Modifiers: p.Modifiers}
}

// RegisterBuiltins adds every node of this package to r.
func RegisterBuiltins(r *Registry) {
	registerValues(r)
	registerLogic(r)
	registerFlow(r)
	registerTriggers(r)
	registerEvents(r)
	registerState(r)
	registerKeys(r)

	numeric[int](r)
	numeric[float32](r)
	numeric[float64](r)

	for _, fn := range []func(*Registry){
		typed[bool], typed[int], typed[float32], typed[float64], typed[string],
		parameter[bool], parameter[int], parameter[float32],
		casts[bool], casts[int], casts[float32], casts[float64], casts[string],
	} {
		fn(r)
	}
	r.MustRegister(kindOf[pulse.Vector3]("value.constant"), "Fixed vector", constant[pulse.Vector3]())
}

func registerValues(r *Registry) {
	r.MustRegister("value.vector3.compose", "Vector from X, Y and Z", simple(NewVector3Compose))
	r.MustRegister("value.vector3.decompose", "X, Y, Z and length of a vector", simple(NewVector3Decompose))
	r.MustRegister("math.lerp", "Linear interpolation between A and B", simple(NewLerp))
	r.MustRegister("math.remap", "Map a value from one range to another", simple(NewRemap))
	r.MustRegister("math.remap0111", "Map [0,1] to [-1,1]", simple(NewRemap0111))
	r.MustRegister("math.remap1101", "Map [-1,1] to [0,1]", simple(NewRemap1101))
	r.MustRegister("random.bool", "True with a given probability", simple(NewRandomBool))
	r.MustRegister("string.format", "Text with ${name} placeholders", withErr(func(p templateParams) (*Format, error) {
		return NewFormat(p.Template)
	}))
}

func registerLogic(r *Registry) {
	r.MustRegister("logic.and", "A and B", simple(NewAnd))
	r.MustRegister("logic.or", "A or B", simple(NewOr))
	r.MustRegister("logic.not", "Negation", simple(NewNot))
	r.MustRegister("logic.condition", "Boolean expression over parameters", withErr(func(p expressionParams) (*Condition, error) {
		return NewCondition(p.Expression)
	}))
	r.MustRegister("flow.if", "Branch on a condition", simple(NewIf))
	r.MustRegister("flow.if_with_state", "Branch on condition changes", simple(NewIfWithState))
}

func registerFlow(r *Registry) {
	r.MustRegister("flow.sequence", "Run branches in order", with(func(p countParams) *Sequence {
		return NewSequence(p.Count)
	}))
	r.MustRegister("flow.for", "Loop Count times", simple(NewFor))
	r.MustRegister("flow.while", "Loop while a condition holds", simple(NewWhile))
	r.MustRegister("flow.delay", "Wait before continuing", simple(NewDelay))
	r.MustRegister("flow.async", "Start a branch without waiting", simple(NewAsync))
	r.MustRegister("flow.log", "Write a message to the log", simple(NewLog))
	r.MustRegister("tween.float", "Interpolate a float over time", simple(NewTweenFloat))
}

func registerTriggers(r *Registry) {
	r.MustRegister("trigger.fire_every", "Fire on an interval", with(func(p intervalParams) *FireEvery {
		return NewFireEvery(p.Interval)
	}))
	r.MustRegister("trigger.fire_while_true", "Fire on an interval while true", with(func(p intervalParams) *FireWhile {
		return NewFireWhileTrue(p.Interval)
	}))
	r.MustRegister("trigger.fire_while_false", "Fire on an interval while false", with(func(p intervalParams) *FireWhile {
		return NewFireWhileFalse(p.Interval)
	}))
	r.MustRegister("trigger.fire_on_true", "Fire when a condition becomes true", simple(NewFireOnTrue))
	r.MustRegister("trigger.fire_on_false", "Fire when a condition becomes false", simple(NewFireOnFalse))
	r.MustRegister("trigger.button", "Fire once per press", simple(NewButton))
}

func registerEvents(r *Registry) {
	r.MustRegister("event.on_start", "Fire when the engine starts", simple(NewOnStart))
	r.MustRegister("event.on_stop", "Fire when the engine stops", simple(NewOnStop))
	r.MustRegister("event.on_avatar_changed", "Fire on avatar change", simple(NewOnAvatarChanged))
	r.MustRegister("event.on_instance_joined", "Fire when a user joins", simple(NewOnInstanceJoined))
	r.MustRegister("event.on_instance_left", "Fire when a user leaves", simple(NewOnInstanceLeft))
	r.MustRegister("event.fire_impulse", "Broadcast an impulse", with(func(p nameParams) *FireImpulse {
		return NewFireImpulse(p.Name)
	}))
	r.MustRegister("event.receive_impulse", "Fire when an impulse is broadcast", with(func(p nameParams) *ReceiveImpulse {
		return NewReceiveImpulse(p.Name)
	}))
}

func registerState(r *Registry) {
	r.MustRegister("state.current_avatar", "Avatar being worn", simple(NewCurrentAvatar))
	r.MustRegister("state.player", "Local player snapshot", simple(NewPlayer))
	r.MustRegister("state.instance", "Current world instance", simple(NewInstance))
	r.MustRegister("state.speech_text", "Latest speech transcript", simple(NewSpeechText))
}

func registerKeys(r *Registry) {
	r.MustRegister("keys.press", "Press and release a key chord", with(func(p keyParams) *Keybind {
		return NewPressKeybind(p.keybind())
	}))
	r.MustRegister("keys.hold", "Hold a key chord down", with(func(p keyParams) *Keybind {
		return NewHoldKeybind(p.keybind())
	}))
	r.MustRegister("keys.release", "Release a held key chord", with(func(p keyParams) *Keybind {
		return NewReleaseKeybind(p.keybind())
	}))
}

func numeric[T pulse.Number](r *Registry) {
	r.MustRegister(kindOf[T]("math.add"), "A + B", simple(NewAdd[T]))
	r.MustRegister(kindOf[T]("math.subtract"), "A - B", simple(NewSubtract[T]))
	r.MustRegister(kindOf[T]("math.multiply"), "A * B", simple(NewMultiply[T]))
	r.MustRegister(kindOf[T]("math.clamp"), "Limit a value to a range", simple(NewClamp[T]))
	r.MustRegister(kindOf[T]("random"), "Random value in [Min, Max)", simple(NewRandom[T]))
}

// typed registers the nodes available for every plain value type.
func typed[T comparable](r *Registry) {
	r.MustRegister(kindOf[T]("value.constant"), "Fixed value", constant[T]())
	r.MustRegister(kindOf[T]("logic.equals"), "A equals B", simple(NewEquals[T]))
	r.MustRegister(kindOf[T]("trigger.fire_on_change"), "Fire when a value changes", simple(NewFireOnChange[T]))
	r.MustRegister(kindOf[T]("variable.write"), "Store a persistent variable", with(func(p nameParams) *WriteVariable[T] {
		return NewWriteVariable[T](p.Name)
	}))
	r.MustRegister(kindOf[T]("variable.read"), "Load a persistent variable", with(func(p nameParams) *ReadVariable[T] {
		return NewReadVariable[T](p.Name)
	}))
}

// parameter registers the OSC nodes for an avatar parameter type.
func parameter[T ParameterValue](r *Registry) {
	r.MustRegister(kindOf[T]("event.on_parameter"), "Fire when a parameter is received", with(func(p addressParams) *OnParameterReceived[T] {
		return NewOnParameterReceived[T](p.Address)
	}))
	r.MustRegister(kindOf[T]("osc.send_parameter"), "Send an avatar parameter", with(func(p addressParams) *SendParameter[T] {
		return NewSendParameter[T](p.Address)
	}))
	r.MustRegister(kindOf[T]("osc.read_parameter"), "Last received parameter value", with(func(p addressParams) *ReadParameter[T] {
		return NewReadParameter[T](p.Address)
	}))
}

// casts registers Cast from TFrom to every other plain type.
func casts[TFrom any](r *Registry) {
	for _, register := range []func(*Registry){
		cast[TFrom, bool], cast[TFrom, int], cast[TFrom, float32], cast[TFrom, float64], cast[TFrom, string],
	} {
		register(r)
	}
}

func cast[TFrom, TTo any](r *Registry) {
	if TypeName[TFrom]() == TypeName[TTo]() {
		return
	}
	r.MustRegister("cast."+TypeName[TFrom]()+"."+TypeName[TTo](), "Checked conversion", simple(NewCast[TFrom, TTo]))
}

func constant[T any]() Factory {
	return func(p Params) (pulse.Node, error) {
		var params struct {
			Value T `mapstructure:"value"`
		}
		if err := DecodeParams(p, &params); err != nil {
			return nil, err
		}
		return NewConstant(params.Value), nil
	}
}
