// Package nodes is the built-in node library.
//
// Every node is a plain Go type embedding pulse.NodeBase with exported port
// fields, created by a New* constructor:
//
//	timer := nodes.NewFireEvery(time.Second)
//	coin := nodes.NewRandomBool()
//	send := nodes.NewSendParameter[bool]("Toggle")
//
//	g := pulse.NewGraph().Add(timer, coin, send)
//	g.ConnectFlow(timer.Next, send.In)
//	pulse.Connect(g, coin.Out, send.Value)
//
// Generic nodes are instantiated per value type; their kinds carry the type
// name (for example "math.add.float" or "cast.float.int").
//
// Registry maps kind tags to factories so graphs can be built from
// definitions. Default returns a registry holding every node in this package.
package nodes

import (
	"fmt"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// TypeName returns the short name used in kinds for a value type: bool, int,
// float (float32), double (float64), string, vector3 or quaternion.
func TypeName[T any]() string {
	var zero T
	switch any(zero).(type) {
	case bool:
		return "bool"
	case int:
		return "int"
	case float32:
		return "float"
	case float64:
		return "double"
	case string:
		return "string"
	case pulse.Vector3:
		return "vector3"
	case pulse.Quaternion:
		return "quaternion"
	default:
		return fmt.Sprintf("%T", zero)
	}
}

// kindOf builds a kind tag such as "math.add.float".
func kindOf[T any](prefix string) string {
	return prefix + "." + TypeName[T]()
}
