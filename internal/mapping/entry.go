// Package mapping holds the mapping table (HOTAS signal -> output action)
// and the resolver that turns per-tick signal values into output
// assignments using priority and deadband.
package mapping

import (
	"github.com/google/uuid"
	"github.com/soar/hotasd/internal/signal"
)

// AxisID is a virtual-gamepad analog axis or trigger target.
type AxisID uint8

const (
	AxisLX AxisID = iota
	AxisLY
	AxisRX
	AxisRY
	AxisLT
	AxisRT
)

// ButtonID is a virtual-gamepad digital button target.
type ButtonID uint8

const (
	ButtonA ButtonID = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonStart
	ButtonBack
	ButtonL3
	ButtonR3
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight
)

// ActionKind tags which Action variant is active.
type ActionKind uint8

const (
	ActionAxis ActionKind = iota
	ActionButton
	ActionKey
	ActionMouse
)

// Action is the tagged output target a mapping drives: a gamepad axis or
// button, a keyboard key (by virtual-key code), or an opaque mouse
// operation token dispatched to SyntheticInput.
type Action struct {
	Kind   ActionKind
	Axis   AxisID
	Button ButtonID
	VK     uint32
	Mouse  string
}

// groupKey identifies the output a set of mappings fan into, used to group
// mappings for resolution.
type groupKey struct {
	kind   ActionKind
	axis   AxisID
	button ButtonID
	vk     uint32
	mouse  string
}

func (a Action) group() groupKey {
	return groupKey{kind: a.Kind, axis: a.Axis, button: a.Button, vk: a.VK, mouse: a.Mouse}
}

// Entry is one mapping: a HOTAS signal routed to an output action with a
// priority (ties broken by id) and a deadband.
type Entry struct {
	ID        string
	SignalKey signal.Key
	Action    Action
	Priority  int32
	Deadband  float32
}

// NewEntry constructs an Entry, generating a UUID-based id if the caller
// leaves id empty.
func NewEntry(id string, sigKey signal.Key, action Action, priority int32, deadband float32) Entry {
	if id == "" {
		id = uuid.NewString()
	}
	return Entry{ID: id, SignalKey: sigKey, Action: action, Priority: priority, Deadband: deadband}
}

// DefaultAxisDeadband is applied when loading legacy profiles that omit a
// deadband for an axis/trigger mapping (cmd/hotasd's loader uses it for an
// axis row whose deadband column is empty).
const DefaultAxisDeadband = 0.05
