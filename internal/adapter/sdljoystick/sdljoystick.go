// Package sdljoystick implements internal/acquire.DeviceSource on top of
// github.com/jupiterrider/purego-sdl3's Joystick API, adapted from the
// teacher's internal/gamepad/reader.go: open/close and the event pump
// survive, but pollState's per-axis dispatch into a decoded GamepadState is
// replaced with packing the raw axis/button/hat values into a byte report
// so the core's own SignalDecoder (driven by a user bit-map) does the
// normalizing instead of a hardcoded per-vendor table. Unlike the teacher,
// which only ever drives one controller, a HOTAS rig needs the stick,
// throttle and an optional gamepad open and polled simultaneously, so this
// Source tracks one report per open joystick rather than a single "active"
// one.
package sdljoystick

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/hotasd/internal/acquire"
	"github.com/soar/hotasd/internal/clock"
)

// reportLayout: 8 axes as i16 LE (16 bytes) + 16 buttons as a u16 bitmask
// LE (2 bytes) + 1 hat byte (SDL's bitmask convention) = 19 bytes. A
// bit-map authored against this device reads individual axes/buttons out
// of fixed byte offsets the same way it would against a real HID report.
const (
	maxAxes     = 8
	reportBytes = maxAxes*2 + 2 + 1
)

type joystickState struct {
	joystick *sdl.Joystick
	report   []byte
	ts       float64
	ok       bool
}

// Source is a DeviceSource exposing every open SDL joystick as its own
// handle. It keeps no decoded GamepadState and emits no change events; it
// is a pure byte-report source, matching the DeviceSource.ReadLatest
// contract.
type Source struct {
	clk *clock.Clock

	mu   sync.Mutex
	byID map[sdl.JoystickID]*joystickState
}

// New creates a Source with its own clock; call SetClock before Open if
// the source must share an acquisition core's clock domain (the common
// case, since the core compares this adapter's timestamps against its own
// clock for staleness).
func New() *Source {
	return &Source{
		clk:  clock.New(),
		byID: make(map[sdl.JoystickID]*joystickState),
	}
}

// SetClock replaces the clock used to stamp reports.
func (s *Source) SetClock(clk *clock.Clock) {
	s.mu.Lock()
	s.clk = clk
	s.mu.Unlock()
}

// Enumerate lists open-able joysticks currently known to SDL.
func (s *Source) Enumerate() ([]acquire.DeviceIdentity, error) {
	ids := sdl.GetJoysticks()
	out := make([]acquire.DeviceIdentity, 0, len(ids))
	for _, id := range ids {
		out = append(out, acquire.DeviceIdentity{Path: fmt.Sprintf("sdl-joystick:%d", id), Kind: "gamepad"})
	}
	return out, nil
}

// Open initializes SDL's joystick subsystem (idempotent) on first call and
// opens the joystick named by path (as produced by Enumerate, or any SDL
// joystick instance ID formatted the same way; an unparsable path opens
// the first joystick not already held open by this Source). Must be
// called from the same OS thread that will later pump events via Pump, per
// SDL3's thread-affinity requirement — mirrored from the teacher's Run(),
// which calls runtime.LockOSThread() for the same reason.
func (s *Source) Open(path string) (acquire.Handle, error) {
	runtime.LockOSThread()
	if !sdl.WasInit(sdl.InitJoystick) {
		if !sdl.Init(sdl.InitJoystick) {
			return nil, fmt.Errorf("sdljoystick: SDL init failed: %s", sdl.GetError())
		}
	}

	var instanceID sdl.JoystickID
	if _, err := fmt.Sscanf(path, "sdl-joystick:%d", &instanceID); err != nil {
		s.mu.Lock()
		ids := sdl.GetJoysticks()
		found := false
		for _, id := range ids {
			if _, taken := s.byID[id]; !taken {
				instanceID = id
				found = true
				break
			}
		}
		s.mu.Unlock()
		if !found {
			return nil, fmt.Errorf("sdljoystick: no unopened joystick available")
		}
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		return nil, fmt.Errorf("sdljoystick: open %d failed: %s", instanceID, sdl.GetError())
	}

	s.mu.Lock()
	s.byID[instanceID] = &joystickState{joystick: js, report: make([]byte, reportBytes)}
	s.mu.Unlock()

	return instanceID, nil
}

// Close closes the joystick identified by h.
func (s *Source) Close(h acquire.Handle) error {
	id, ok := h.(sdl.JoystickID)
	if !ok {
		return fmt.Errorf("sdljoystick: bad handle type %T", h)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, exists := s.byID[id]
	if !exists {
		return nil
	}
	sdl.CloseJoystick(st.joystick)
	delete(s.byID, id)
	return nil
}

// Pump drains the SDL event queue and refreshes the latest report for
// every open joystick. Call it once per acquisition tick from the thread
// that called Open, in place of the teacher's Reader.Run loop (the
// scheduler here lives in internal/clock, not in this adapter).
func (s *Source) Pump() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		if event.Type() == sdl.EventJoystickRemoved {
			devEvent := event.JDevice()
			s.mu.Lock()
			if st, exists := s.byID[devEvent.Which]; exists {
				sdl.CloseJoystick(st.joystick)
				delete(s.byID, devEvent.Which)
			}
			s.mu.Unlock()
		}
	}
	s.pollAll()
}

func (s *Source) pollAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clk.Now()
	for _, st := range s.byID {
		pollOne(st, now)
	}
}

func pollOne(st *joystickState, now float64) {
	js := st.joystick
	if !sdl.JoystickConnected(js) {
		st.ok = false
		return
	}

	numAxes := int(sdl.GetNumJoystickAxes(js))
	for i := 0; i < maxAxes; i++ {
		var raw int16
		if i < numAxes {
			raw = sdl.GetJoystickAxis(js, int32(i))
		}
		st.report[i*2] = byte(uint16(raw))
		st.report[i*2+1] = byte(uint16(raw) >> 8)
	}

	var buttons uint16
	numButtons := int(sdl.GetNumJoystickButtons(js))
	for i := 0; i < 16 && i < numButtons; i++ {
		if sdl.GetJoystickButton(js, int32(i)) {
			buttons |= 1 << uint(i)
		}
	}
	st.report[maxAxes*2] = byte(buttons)
	st.report[maxAxes*2+1] = byte(buttons >> 8)

	var hat uint8
	if sdl.GetNumJoystickHats(js) > 0 {
		hat = sdl.GetJoystickHat(js, 0)
	}
	st.report[maxAxes*2+2] = hat

	st.ts = now
	st.ok = true
}

// ReadLatest returns the most recently polled report for h. Staleness is
// enforced by the acquisition core against the shared clock, not here.
func (s *Source) ReadLatest(h acquire.Handle) ([]byte, float64, bool) {
	id, idOK := h.(sdl.JoystickID)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, exists := s.byID[id]
	if !idOK || !exists || !st.ok {
		return nil, 0, false
	}
	out := make([]byte, len(st.report))
	copy(out, st.report)
	return out, st.ts, true
}

// Connected reports whether h's joystick is still attached.
func (s *Source) Connected(h acquire.Handle) bool {
	id, ok := h.(sdl.JoystickID)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, exists := s.byID[id]
	return exists && sdl.JoystickConnected(st.joystick)
}
