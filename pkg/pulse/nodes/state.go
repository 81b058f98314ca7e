package nodes

import "github.com/randalmurphal/pulse/pkg/pulse"

// CurrentAvatar outputs the avatar the player is wearing.
type CurrentAvatar struct {
	pulse.NodeBase
	Avatar *pulse.Output[pulse.Avatar]
	ID     *pulse.Output[string]
	Name   *pulse.Output[string]
	Found  *pulse.Output[bool]
}

// NewCurrentAvatar creates a reader for the current avatar.
func NewCurrentAvatar() *CurrentAvatar {
	n := &CurrentAvatar{}
	n.Init("state.current_avatar")
	n.Avatar = pulse.AddOutput[pulse.Avatar](&n.NodeBase, "Avatar")
	n.ID = pulse.AddOutput[string](&n.NodeBase, "ID")
	n.Name = pulse.AddOutput[string](&n.NodeBase, "Name")
	n.Found = pulse.AddOutput[bool](&n.NodeBase, "Found")
	return n
}

// Process implements pulse.Node.
func (n *CurrentAvatar) Process(c *pulse.Context) error {
	a, ok := c.State().CurrentAvatar()
	n.Avatar.Write(c, a)
	n.ID.Write(c, a.ID)
	n.Name.Write(c, a.Name)
	n.Found.Write(c, ok)
	return nil
}

// Player outputs a snapshot of the local player.
type Player struct {
	pulse.NodeBase
	State    *pulse.Output[pulse.PlayerState]
	Muted    *pulse.Output[bool]
	Deafened *pulse.Output[bool]
	AFK      *pulse.Output[bool]
	InVR     *pulse.Output[bool]
	Velocity *pulse.Output[pulse.Vector3]
	Gesture  *pulse.Output[int]
}

// NewPlayer creates a reader for the local player's state.
func NewPlayer() *Player {
	n := &Player{}
	n.Init("state.player")
	n.State = pulse.AddOutput[pulse.PlayerState](&n.NodeBase, "State")
	n.Muted = pulse.AddOutput[bool](&n.NodeBase, "Muted")
	n.Deafened = pulse.AddOutput[bool](&n.NodeBase, "Deafened")
	n.AFK = pulse.AddOutput[bool](&n.NodeBase, "AFK")
	n.InVR = pulse.AddOutput[bool](&n.NodeBase, "InVR")
	n.Velocity = pulse.AddOutput[pulse.Vector3](&n.NodeBase, "Velocity")
	n.Gesture = pulse.AddOutput[int](&n.NodeBase, "Gesture")
	return n
}

// Process implements pulse.Node.
func (n *Player) Process(c *pulse.Context) error {
	p := c.State().Player()
	n.State.Write(c, p)
	n.Muted.Write(c, p.Muted)
	n.Deafened.Write(c, p.Deafened)
	n.AFK.Write(c, p.AFK)
	n.InVR.Write(c, p.InVR)
	n.Velocity.Write(c, p.Velocity)
	n.Gesture.Write(c, p.Gesture)
	return nil
}

// Instance outputs the world instance the player is in.
type Instance struct {
	pulse.NodeBase
	WorldID   *pulse.Output[string]
	Users     *pulse.Output[[]string]
	UserCount *pulse.Output[int]
}

// NewInstance creates a reader for the current instance.
func NewInstance() *Instance {
	n := &Instance{}
	n.Init("state.instance")
	n.WorldID = pulse.AddOutput[string](&n.NodeBase, "WorldID")
	n.Users = pulse.AddOutput[[]string](&n.NodeBase, "Users")
	n.UserCount = pulse.AddOutput[int](&n.NodeBase, "UserCount")
	return n
}

// Process implements pulse.Node.
func (n *Instance) Process(c *pulse.Context) error {
	in := c.State().Instance()
	n.WorldID.Write(c, in.WorldID)
	n.Users.Write(c, in.Users)
	n.UserCount.Write(c, len(in.Users))
	return nil
}

// SpeechText outputs the latest speech-to-text transcript.
type SpeechText struct {
	pulse.NodeBase
	Text *pulse.Output[string]
}

// NewSpeechText creates a reader for the latest speech-to-text result.
func NewSpeechText() *SpeechText {
	n := &SpeechText{}
	n.Init("state.speech_text")
	n.Text = pulse.AddOutput[string](&n.NodeBase, "Text")
	return n
}

// Process implements pulse.Node.
func (n *SpeechText) Process(c *pulse.Context) error {
	n.Text.Write(c, c.State().SpeechText())
	return nil
}
