// Package filter implements the per-signal debounce/spike-suppression
// state machine: none, analog rate-limit, digital-gated, and multi-bit
// discrete-gated.
package filter

import (
	"sync"

	"github.com/soar/hotasd/internal/signal"
)

// Params are the hot-swappable filter parameters shared by every signal
// unless overridden per signal.
type Params struct {
	AnalogRatePct      float32 // [0, 100]
	DigitalMinHoldSec  float64 // >= 0
}

// Clamp brings out-of-range parameters into their accepted range, per the
// error-handling design's "configuration out of range: clamp" rule.
func (p Params) Clamp() Params {
	if p.AnalogRatePct < 0 {
		p.AnalogRatePct = 0
	}
	if p.AnalogRatePct > 100 {
		p.AnalogRatePct = 100
	}
	if p.DigitalMinHoldSec < 0 {
		p.DigitalMinHoldSec = 0
	}
	return p
}

// state is the per-signal filter state machine memory.
type state struct {
	prevFiltered  float32
	prevRaw       float32
	riseTime      float64
	hasRiseTime   bool
	pendingValue  float32
	promotedValue float32
	active        bool
	initialized   bool
}

// Engine owns filter state for every signal it has seen and applies the
// configured mode + params deterministically given the sequence of
// (t, rawValue) inputs for that signal. Engine is owned exclusively by the
// acquisition core; it is not safe to call Apply for the same key from two
// goroutines concurrently, matching the single-writer ownership the rest of
// the pipeline assumes.
type Engine struct {
	mu     sync.Mutex // guards the maps and defaultParams, not the fields of each *state
	states map[signal.Key]*state

	modes  map[signal.Key]Mode
	bypass map[signal.Key]bool

	defaultParams Params
	perSignal     map[signal.Key]Params

	// forced binary-digital triggers skip analog rate limiting and
	// binary-threshold at >= 0.5 before the digital state machine.
	forceBinary map[signal.Key]bool
}

// Mode selects which state machine Apply runs for a signal.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeAnalog
	ModeDigital
)

// NewEngine creates an engine with the given default parameters.
func NewEngine(defaults Params) *Engine {
	return &Engine{
		states:        make(map[signal.Key]*state),
		modes:         make(map[signal.Key]Mode),
		bypass:        make(map[signal.Key]bool),
		perSignal:     make(map[signal.Key]Params),
		forceBinary:   make(map[signal.Key]bool),
		defaultParams: defaults.Clamp(),
	}
}

// SetDefaultParams updates the default filter parameters used by any
// signal without a per-signal override. Takes effect no later than the
// next Apply call.
func (e *Engine) SetDefaultParams(p Params) {
	e.mu.Lock()
	e.defaultParams = p.Clamp()
	e.mu.Unlock()
}

// SetSignalParams overrides filter parameters for one signal.
func (e *Engine) SetSignalParams(key signal.Key, p Params) {
	e.mu.Lock()
	e.perSignal[key] = p.Clamp()
	e.mu.Unlock()
}

// SetMode sets the filter mode for a signal. Hot-swappable.
func (e *Engine) SetMode(key signal.Key, m Mode) {
	e.mu.Lock()
	e.modes[key] = m
	e.mu.Unlock()
}

// Mode returns the configured mode for a signal (ModeNone if unset).
func (e *Engine) Mode(key signal.Key) Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes[key]
}

// SetBypass disables gating for a signal regardless of its configured
// mode: the signal passes through as ModeNone. This is independent of
// Mode, matching the original's per-signal _signal_filter bypass bit.
func (e *Engine) SetBypass(key signal.Key, bypass bool) {
	e.mu.Lock()
	e.bypass[key] = bypass
	e.mu.Unlock()
}

// SetForceBinary marks a (typically trigger) signal as forced into
// binary-digital mode: analog rate limiting is skipped and the raw value
// is thresholded at >= 0.5 before the digital state machine runs.
func (e *Engine) SetForceBinary(key signal.Key, forced bool) {
	e.mu.Lock()
	e.forceBinary[key] = forced
	e.mu.Unlock()
}

func (e *Engine) paramsFor(key signal.Key) Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.perSignal[key]; ok {
		return p
	}
	return e.defaultParams
}

func (e *Engine) stateFor(key signal.Key) *state {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[key]
	if !ok {
		st = &state{}
		e.states[key] = st
	}
	return st
}

// Apply runs the configured filter for key against one (t, raw) sample and
// returns the filtered output. bitCount distinguishes the digital
// single-bit state machine (bitCount == 1) from the multi-bit discrete
// gate (bitCount > 1) when mode is ModeDigital.
func (e *Engine) Apply(key signal.Key, bitCount uint8, t float64, raw float32) float32 {
	e.mu.Lock()
	bypass := e.bypass[key]
	mode := e.modes[key]
	forceBinary := e.forceBinary[key]
	e.mu.Unlock()

	st := e.stateFor(key)
	params := e.paramsFor(key)

	if forceBinary {
		if raw >= 0.5 {
			raw = 1.0
		} else {
			raw = 0.0
		}
		bitCount = 1
		mode = ModeDigital
	}

	if bypass {
		mode = ModeNone
	}

	switch mode {
	case ModeNone:
		return applyNone(st, raw)
	case ModeAnalog:
		return applyAnalog(st, params, raw)
	case ModeDigital:
		if bitCount <= 1 {
			return applyDigitalBinary(st, params, t, raw)
		}
		return applyMultiBitDiscrete(st, params, t, raw)
	default:
		return applyNone(st, raw)
	}
}

func applyNone(st *state, raw float32) float32 {
	st.prevRaw = raw
	st.initialized = true
	return raw
}

// applyAnalog rate-limits the step between consecutive outputs. range is
// fixed at 2.0 regardless of the axis's native range (the analog-rate
// percentage is always interpreted against a span of 2), matching the
// specification's resolution of the original's range ambiguity.
func applyAnalog(st *state, p Params, raw float32) float32 {
	const rng = 2.0
	maxStep := float32(float64(p.AnalogRatePct) / 100.0 * rng)

	if !st.initialized {
		st.prevFiltered = raw
		st.prevRaw = raw
		st.initialized = true
		return raw
	}

	dv := raw - st.prevFiltered
	var out float32
	switch {
	case dv > maxStep:
		out = st.prevFiltered + maxStep
	case dv < -maxStep:
		out = st.prevFiltered - maxStep
	default:
		out = raw
	}
	st.prevFiltered = out
	st.prevRaw = raw
	return out
}

// applyDigitalBinary is the pending->promoted gate for single-bit signals:
// a rising edge is only visible once it has held high for at least
// DigitalMinHoldSec; a pulse released before that is never exposed.
func applyDigitalBinary(st *state, p Params, t float64, raw float32) float32 {
	nowHi := raw > 0.0
	prevHi := st.prevRaw > 0.0

	switch {
	case nowHi && !prevHi: // rising edge
		st.riseTime = t
		st.hasRiseTime = true
		st.active = false
	case nowHi && prevHi: // held high
		if !st.active && st.hasRiseTime && t-st.riseTime >= p.DigitalMinHoldSec {
			st.active = true
		}
	case !nowHi && prevHi: // falling edge
		st.active = false
		st.hasRiseTime = false
	default: // idle low
		st.hasRiseTime = false
		st.active = false
	}

	st.prevRaw = raw
	st.initialized = true
	if st.active {
		return 1.0
	}
	return 0.0
}

// applyMultiBitDiscrete gates value *changes* on a multi-bit signal (e.g. a
// 4-bit hat): a new value must remain stable for DigitalMinHoldSec before
// it is promoted and the output steps to it; until then the previous
// promoted value is held.
func applyMultiBitDiscrete(st *state, p Params, t float64, raw float32) float32 {
	if !st.initialized {
		st.prevFiltered = raw
		st.prevRaw = raw
		st.pendingValue = raw
		st.initialized = true
		return raw
	}

	if raw != st.prevRaw {
		st.riseTime = t
		st.hasRiseTime = true
		st.pendingValue = raw
		st.prevRaw = raw
		return st.prevFiltered
	}

	// stable
	if st.hasRiseTime && t-st.riseTime >= p.DigitalMinHoldSec && st.pendingValue == raw && raw != st.prevFiltered {
		st.prevFiltered = raw
		st.hasRiseTime = false
		st.prevRaw = raw
		return raw
	}
	st.prevRaw = raw
	return st.prevFiltered
}
