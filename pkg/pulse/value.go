package pulse

import (
	"fmt"
	"math"
	"reflect"
)

// Number is the set of numeric types math nodes are instantiated over.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Vector3 is a 3-component float vector (positions, velocities).
type Vector3 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// Length returns the euclidean length of the vector.
func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// String implements fmt.Stringer.
func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Quaternion is a rotation stored as (X, Y, Z, W).
type Quaternion struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
	W float32 `json:"w" yaml:"w"`
}

// IdentityQuaternion is the no-rotation quaternion.
var IdentityQuaternion = Quaternion{W: 1}

// Avatar identifies the avatar the local player is wearing.
type Avatar struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerState is a snapshot of the local player.
type PlayerState struct {
	Muted     bool    `json:"muted"`
	Deafened  bool    `json:"deafened"`
	AFK       bool    `json:"afk"`
	Grounded  bool    `json:"grounded"`
	Seated    bool    `json:"seated"`
	InVR      bool    `json:"in_vr"`
	Velocity  Vector3 `json:"velocity"`
	Upright   float32 `json:"upright"`
	Gesture   int     `json:"gesture"`
	Viseme    int     `json:"viseme"`
	TrackType int     `json:"track_type"`
}

// InstanceState is a snapshot of the world instance the player is in.
type InstanceState struct {
	WorldID string   `json:"world_id"`
	Users   []string `json:"users"`
}

// typeOf returns the reflect.Type for T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeName is used in errors and port descriptions.
func typeName(t reflect.Type) string {
	if t == nil {
		return "flow"
	}
	return t.String()
}
