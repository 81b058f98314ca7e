package pulse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse/variable"
)

// ParameterSender delivers avatar parameters to the OSC transport.
// Sends are fire-and-forget; an error means the value was not handed off.
type ParameterSender interface {
	SendParameter(address string, value any) error
}

// StateAccessor exposes read-only snapshots of the VRChat client state.
type StateAccessor interface {
	// CurrentAvatar returns the worn avatar, or false when none is known.
	CurrentAvatar() (Avatar, bool)
	Player() PlayerState
	Instance() InstanceState
	SpeechText() string
}

// Keybind is a key chord such as ctrl+shift+F1.
type Keybind struct {
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty" mapstructure:"modifiers"`
	Key       string   `json:"key" yaml:"key" mapstructure:"key"`
}

// String renders the chord as "mod+mod+key".
func (k Keybind) String() string {
	parts := append(append([]string{}, k.Modifiers...), k.Key)
	return strings.Join(parts, "+")
}

// KeySimulator injects OS keyboard input.
type KeySimulator interface {
	PressKeybind(ctx context.Context, kb Keybind, hold time.Duration) error
	HoldKeybind(ctx context.Context, kb Keybind) error
	ReleaseKeybind(ctx context.Context, kb Keybind) error
}

// Services groups the collaborators nodes reach through their Context.
// Nil members are replaced by no-op implementations.
type Services struct {
	Parameters ParameterSender
	State      StateAccessor
	Keys       KeySimulator
	Variables  variable.Store
}

// withDefaults fills nil members with no-op collaborators.
func (s Services) withDefaults() Services {
	if s.Parameters == nil {
		s.Parameters = NopSender{}
	}
	if s.State == nil {
		s.State = NopState{}
	}
	if s.Keys == nil {
		s.Keys = NopKeys{}
	}
	if s.Variables == nil {
		s.Variables = variable.NewMemoryStore()
	}
	return s
}

// NopSender discards parameters after checking they are OSC-compatible.
type NopSender struct{}

// SendParameter implements ParameterSender.
func (NopSender) SendParameter(_ string, value any) error {
	return CheckParameterValue(value)
}

// NopState reports an empty client state.
type NopState struct{}

// CurrentAvatar implements StateAccessor.
func (NopState) CurrentAvatar() (Avatar, bool) { return Avatar{}, false }

// Player implements StateAccessor.
func (NopState) Player() PlayerState { return PlayerState{} }

// Instance implements StateAccessor.
func (NopState) Instance() InstanceState { return InstanceState{} }

// SpeechText implements StateAccessor.
func (NopState) SpeechText() string { return "" }

// NopKeys ignores key injection.
type NopKeys struct{}

// PressKeybind implements KeySimulator.
func (NopKeys) PressKeybind(context.Context, Keybind, time.Duration) error { return nil }

// HoldKeybind implements KeySimulator.
func (NopKeys) HoldKeybind(context.Context, Keybind) error { return nil }

// ReleaseKeybind implements KeySimulator.
func (NopKeys) ReleaseKeybind(context.Context, Keybind) error { return nil }

// CheckParameterValue reports whether value can be carried as an avatar
// parameter (bool, int or float).
func CheckParameterValue(value any) error {
	switch value.(type) {
	case bool, int, int32, float32:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}
