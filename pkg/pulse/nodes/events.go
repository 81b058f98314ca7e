package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// OnParameterReceived fires when an avatar parameter matching Address
// arrives. Address is a parameter name or a full OSC address glob such as
// "/avatar/parameters/Ear*". Values that cannot be converted to T fail the
// traversal.
type OnParameterReceived[T any] struct {
	pulse.NodeBase
	Value   *pulse.Output[T]
	Address *pulse.Output[string]
	Next    *pulse.FlowOutput

	Pattern string
}

// NewOnParameterReceived creates a listener for parameters matching pattern.
// * matches one address segment and ** any number.
func NewOnParameterReceived[T any](pattern string) *OnParameterReceived[T] {
	n := &OnParameterReceived[T]{Pattern: pattern}
	n.Init(kindOf[T]("event.on_parameter"))
	n.Value = pulse.AddOutput[T](&n.NodeBase, "Value")
	n.Address = pulse.AddOutput[string](&n.NodeBase, "Address")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *OnParameterReceived[T]) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Addresses implements pulse.ParameterListener.
func (n *OnParameterReceived[T]) Addresses() []string {
	return []string{pulse.ParameterAddress(n.Pattern)}
}

// OnParameter implements pulse.ParameterListener.
func (n *OnParameterReceived[T]) OnParameter(c *pulse.Context, address string, value any) error {
	v, err := pulse.Convert[T](value)
	if err != nil {
		return err
	}
	n.Value.Write(c, v)
	n.Address.Write(c, address)
	return c.TriggerFlow(n.Next)
}

// OnAvatarChanged fires when the local player changes avatar.
type OnAvatarChanged struct {
	pulse.NodeBase
	Avatar *pulse.Output[pulse.Avatar]
	ID     *pulse.Output[string]
	Name   *pulse.Output[string]
	Next   *pulse.FlowOutput
}

// NewOnAvatarChanged creates a listener for avatar changes.
func NewOnAvatarChanged() *OnAvatarChanged {
	n := &OnAvatarChanged{}
	n.Init("event.on_avatar_changed")
	n.Avatar = pulse.AddOutput[pulse.Avatar](&n.NodeBase, "Avatar")
	n.ID = pulse.AddOutput[string](&n.NodeBase, "ID")
	n.Name = pulse.AddOutput[string](&n.NodeBase, "Name")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *OnAvatarChanged) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Accepts implements pulse.EventReceiver.
func (n *OnAvatarChanged) Accepts(kind pulse.EventKind) bool {
	return kind == pulse.EventAvatarChanged
}

// HandleEvent implements pulse.EventReceiver.
func (n *OnAvatarChanged) HandleEvent(c *pulse.Context, ev pulse.Event) error {
	n.Avatar.Write(c, ev.Avatar)
	n.ID.Write(c, ev.Avatar.ID)
	n.Name.Write(c, ev.Avatar.Name)
	return c.TriggerFlow(n.Next)
}

// OnInstanceUser fires when a user joins or leaves the instance.
type OnInstanceUser struct {
	pulse.NodeBase
	User *pulse.Output[string]
	Next *pulse.FlowOutput
	kind pulse.EventKind
}

func newOnInstanceUser(kind string, ev pulse.EventKind) *OnInstanceUser {
	n := &OnInstanceUser{kind: ev}
	n.Init(kind)
	n.User = pulse.AddOutput[string](&n.NodeBase, "User")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// NewOnInstanceJoined fires for every user joining the instance.
func NewOnInstanceJoined() *OnInstanceUser {
	return newOnInstanceUser("event.on_instance_joined", pulse.EventInstanceJoined)
}

// NewOnInstanceLeft fires for every user leaving the instance.
func NewOnInstanceLeft() *OnInstanceUser {
	return newOnInstanceUser("event.on_instance_left", pulse.EventInstanceLeft)
}

// Process implements pulse.Node.
func (n *OnInstanceUser) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Accepts implements pulse.EventReceiver.
func (n *OnInstanceUser) Accepts(kind pulse.EventKind) bool { return kind == n.kind }

// HandleEvent implements pulse.EventReceiver.
func (n *OnInstanceUser) HandleEvent(c *pulse.Context, ev pulse.Event) error {
	n.User.Write(c, ev.User)
	return c.TriggerFlow(n.Next)
}

// FireImpulse broadcasts the impulse Name inside the current traversal,
// waits for every receiver, then continues along Next.
type FireImpulse struct {
	pulse.NodeBase
	In      *pulse.FlowInput
	Name    *pulse.Input[string]
	Payload *pulse.Input[string]
	Next    *pulse.FlowOutput
}

// NewFireImpulse creates a broadcaster for the impulse name.
func NewFireImpulse(name string) *FireImpulse {
	n := &FireImpulse{}
	n.Init("event.fire_impulse")
	n.In = n.AddFlowInput("In")
	n.Name = pulse.AddInput(&n.NodeBase, "Name", name)
	n.Payload = pulse.AddInput(&n.NodeBase, "Payload", "")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *FireImpulse) Process(c *pulse.Context) error {
	name, err := n.Name.Read(c)
	if err != nil {
		return err
	}
	payload, err := n.Payload.Read(c)
	if err != nil {
		return err
	}
	if err := c.Impulse(name, payload); err != nil {
		return err
	}
	return c.TriggerFlow(n.Next)
}

// ReceiveImpulse continues along Next whenever its impulse is fired.
type ReceiveImpulse struct {
	pulse.NodeBase
	Payload *pulse.Output[string]
	Next    *pulse.FlowOutput
	Name    string
}

// NewReceiveImpulse creates a receiver for the impulse name.
func NewReceiveImpulse(name string) *ReceiveImpulse {
	n := &ReceiveImpulse{Name: name}
	n.Init("event.receive_impulse")
	n.Payload = pulse.AddOutput[string](&n.NodeBase, "Payload")
	n.Next = n.AddFlowOutput("Next")
	return n
}

// Process implements pulse.Node.
func (n *ReceiveImpulse) Process(c *pulse.Context) error {
	return c.TriggerFlow(n.Next)
}

// Impulse implements pulse.ImpulseReceiver.
func (n *ReceiveImpulse) Impulse() string { return n.Name }

// ReceiveImpulse implements pulse.ImpulseReceiver.
func (n *ReceiveImpulse) ReceiveImpulse(c *pulse.Context, payload any) error {
	s, _ := payload.(string)
	n.Payload.Write(c, s)
	return c.TriggerFlow(n.Next)
}
