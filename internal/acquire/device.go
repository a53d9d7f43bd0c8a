// Package acquire owns the 1kHz acquisition loop: per tick it pulls the
// latest raw report per device, decodes it, filters it, and fans the
// result out to sample rings and to the mapping resolver's value source.
package acquire

// DeviceIdentity names one enumerable HID device.
type DeviceIdentity struct {
	Path string
	Kind string // "stick", "throttle", "gamepad"
}

// Handle is an opaque open-device handle, defined by the DeviceSource
// implementation.
type Handle any

// DeviceSource is the external HID layer contract: enumeration, open/close,
// and non-blocking-ish latest-report reads. Implementations live outside
// the core (see internal/adapter/*); the core only depends on this
// interface.
type DeviceSource interface {
	Enumerate() ([]DeviceIdentity, error)
	Open(path string) (Handle, error)
	Close(h Handle) error
	// ReadLatest returns the most recently received report and its
	// timestamp in seconds. ok is false if the report is stale (older
	// than the implementation's staleness threshold, spec default 500ms)
	// or none has arrived yet. Must never block more than ~200ms.
	ReadLatest(h Handle) (report []byte, timestamp float64, ok bool)
	Connected(h Handle) bool
}

// Pumper is an optional capability a DeviceSource may implement when its
// underlying library needs its event queue drained on the polling thread
// before a read is current (e.g. SDL3's joystick subsystem). Core.Tick
// calls it, if present, before reading any device's latest report.
type Pumper interface {
	Pump()
}
