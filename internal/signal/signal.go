// Package signal holds the descriptor set loaded from a bit-map and the
// decoder that turns raw device reports into logical signal values.
package signal

import "fmt"

// Device disambiguates identically named inputs across the HOTAS pair and
// a standard gamepad.
type Device uint8

const (
	Stick Device = iota
	Throttle
	Gamepad
)

func (d Device) String() string {
	switch d {
	case Stick:
		return "stick"
	case Throttle:
		return "throttle"
	case Gamepad:
		return "gamepad"
	default:
		return "unknown"
	}
}

// ParseDevice parses the device prefix used in persisted signal ids
// ("stick", "throttle", "gamepad").
func ParseDevice(s string) (Device, bool) {
	switch s {
	case "stick":
		return Stick, true
	case "throttle":
		return Throttle, true
	case "gamepad":
		return Gamepad, true
	default:
		return 0, false
	}
}

// Key identifies a logical signal: a device plus an id unique within that
// device (e.g. "joy_x", "A").
type Key struct {
	Device Device
	ID     string
}

// String renders the persisted "device:id" form.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Device, k.ID)
}

// Mode is the per-signal filter mode, hot-swappable via the control surface.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeDigital
	ModeAnalog
)

// Descriptor describes one logical signal as loaded from a bit-map.
// Immutable after load.
type Descriptor struct {
	Key         Key
	DisplayName string
	BitStart    uint16
	BitCount    uint8 // 1..32
	Analog      bool
}

// Validate enforces the bit-count range the BitExtractor depends on.
func (d Descriptor) Validate() error {
	if d.BitCount < 1 || d.BitCount > 32 {
		return fmt.Errorf("signal: descriptor %s has bit_count %d, must be in [1,32]", d.Key, d.BitCount)
	}
	return nil
}

// DescriptorSet is the immutable collection of descriptors loaded at
// startup, one per discovered signal.
type DescriptorSet struct {
	byKey map[Key]Descriptor
	order []Key
}

// NewDescriptorSet validates and indexes a slice of descriptors.
func NewDescriptorSet(descs []Descriptor) (*DescriptorSet, error) {
	ds := &DescriptorSet{byKey: make(map[Key]Descriptor, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := ds.byKey[d.Key]; exists {
			return nil, fmt.Errorf("signal: duplicate descriptor for %s", d.Key)
		}
		ds.byKey[d.Key] = d
		ds.order = append(ds.order, d.Key)
	}
	return ds, nil
}

// Lookup returns the descriptor for key, if known.
func (ds *DescriptorSet) Lookup(key Key) (Descriptor, bool) {
	d, ok := ds.byKey[key]
	return d, ok
}

// List returns all descriptors in load order.
func (ds *DescriptorSet) List() []Descriptor {
	out := make([]Descriptor, 0, len(ds.order))
	for _, k := range ds.order {
		out = append(out, ds.byKey[k])
	}
	return out
}

// ResolveUniqueDevice returns the single device that has a signal with the
// given bare id, used to migrate legacy (unprefixed) persisted mapping
// records. ok is false if zero or more than one device has that id.
func (ds *DescriptorSet) ResolveUniqueDevice(id string) (Device, bool) {
	var found Device
	count := 0
	for _, k := range ds.order {
		if k.ID == id {
			found = k.Device
			count++
		}
	}
	return found, count == 1
}
