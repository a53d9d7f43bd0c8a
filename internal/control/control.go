// Package control exposes the thread-safe setters external callers (a GUI,
// a config loader, a tray menu) use to adjust the pipeline at runtime:
// window length, filter parameters, per-signal mode, signal bypass,
// trigger-digital force flags, and virtual-output enable. Every setter
// takes effect no later than the acquisition tick following the store,
// matching the no-locking-across-ticks guarantee the rest of the pipeline
// relies on.
package control

import (
	"sync/atomic"

	"github.com/soar/hotasd/internal/filter"
	"github.com/soar/hotasd/internal/publish"
	"github.com/soar/hotasd/internal/signal"
)

// defaultWindowSeconds matches the GUI's default plot window before any
// control-surface override.
const defaultWindowSeconds = 5.0

// Surface is the control plane over a running pipeline's filter engine and
// publisher. It holds no acquisition-thread state of its own; every method
// is a thin, safe-to-call-from-any-goroutine wrapper.
type Surface struct {
	engine    *filter.Engine
	publisher *publish.Publisher
	ds        *signal.DescriptorSet

	windowSeconds atomic.Uint64 // float64 bits, snapshot window length in seconds
}

// New creates a control surface over engine, publisher and the descriptor
// set used to resolve per-signal mode keys.
func New(engine *filter.Engine, publisher *publish.Publisher, ds *signal.DescriptorSet) *Surface {
	s := &Surface{engine: engine, publisher: publisher, ds: ds}
	s.SetWindowSeconds(defaultWindowSeconds)
	return s
}

// SetWindowSeconds sets the snapshot window length consumers should use
// when reading sample rings.
func (s *Surface) SetWindowSeconds(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	s.windowSeconds.Store(float64bits(seconds))
}

// WindowSeconds returns the current snapshot window length.
func (s *Surface) WindowSeconds() float64 {
	return float64frombits(s.windowSeconds.Load())
}

// SetFilterParams sets the default analog_rate_pct / digital_min_hold_sec
// applied to any signal without a per-signal override.
func (s *Surface) SetFilterParams(p filter.Params) {
	s.engine.SetDefaultParams(p)
}

// SetSignalFilterParams overrides filter parameters for one signal.
func (s *Surface) SetSignalFilterParams(key signal.Key, p filter.Params) {
	s.engine.SetSignalParams(key, p)
}

// SetSignalMode sets the per-signal filter mode by the persisted
// per_signal_mode[<device>:<id>] config key's logical value.
func (s *Surface) SetSignalMode(key signal.Key, mode signal.Mode) {
	s.engine.SetMode(key, toFilterMode(mode))
}

// SetSignalModeByName parses a "device:id" signal key and a
// none/digital/analog mode name, as read from a config file, and applies
// it. Returns false if the key or mode name is not recognized.
func (s *Surface) SetSignalModeByName(deviceIDPair, modeName string) bool {
	key, ok := parseSignalKey(deviceIDPair, s.ds)
	if !ok {
		return false
	}
	mode, ok := parseModeName(modeName)
	if !ok {
		return false
	}
	s.SetSignalMode(key, mode)
	return true
}

// SetSignalFilterEnabled turns gating on or off for one signal regardless
// of its configured mode; enabled=false bypasses filtering entirely for
// that signal, mirroring filtered_forwarder.hpp's per-signal _signal_filter
// bypass array.
func (s *Surface) SetSignalFilterEnabled(key signal.Key, enabled bool) {
	s.engine.SetBypass(key, !enabled)
}

// SetTriggerDigital forces a trigger signal (trigger_left_digital /
// trigger_right_digital config keys) into binary-digital mode, skipping
// analog rate limiting for it.
func (s *Surface) SetTriggerDigital(key signal.Key, forced bool) {
	s.engine.SetForceBinary(key, forced)
}

// SetOutputEnabled drives the publisher's enable state machine: true
// enables the virtual-pad output (re-plugging the target), false disables
// it (releasing keys, neutralizing the pad, unplugging).
func (s *Surface) SetOutputEnabled(enabled bool) error {
	if enabled {
		return s.publisher.Enable()
	}
	s.publisher.Disable()
	return nil
}

// OutputEnabled reports whether the publisher's virtual-pad output is
// currently enabled.
func (s *Surface) OutputEnabled() bool {
	return s.publisher.EnableState() == publish.Enabled
}

// InjectTestPulse forces the next publisher tick to emit a recognizable
// extreme pattern, for verifying the virtual-pad wiring end to end.
func (s *Surface) InjectTestPulse() {
	s.publisher.InjectTestPulse()
}

func toFilterMode(m signal.Mode) filter.Mode {
	switch m {
	case signal.ModeDigital:
		return filter.ModeDigital
	case signal.ModeAnalog:
		return filter.ModeAnalog
	default:
		return filter.ModeNone
	}
}

func parseModeName(name string) (signal.Mode, bool) {
	switch name {
	case "none":
		return signal.ModeNone, true
	case "digital":
		return signal.ModeDigital, true
	case "analog":
		return signal.ModeAnalog, true
	default:
		return 0, false
	}
}

// parseSignalKey splits a "device:id" pair and validates it against ds;
// legacy unprefixed ids are resolved via ds.ResolveUniqueDevice.
func parseSignalKey(raw string, ds *signal.DescriptorSet) (signal.Key, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			devPart, idPart := raw[:i], raw[i+1:]
			dev, ok := signal.ParseDevice(devPart)
			if !ok {
				return signal.Key{}, false
			}
			return signal.Key{Device: dev, ID: idPart}, true
		}
	}
	dev, ok := ds.ResolveUniqueDevice(raw)
	if !ok {
		return signal.Key{}, false
	}
	return signal.Key{Device: dev, ID: raw}, true
}
