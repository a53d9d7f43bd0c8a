package publish

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/soar/hotasd/internal/mapping"
	"github.com/soar/hotasd/internal/status"
)

// EnableState is the virtual-pad output enable state machine:
// Disabled -> Enabling -> Enabled -> Disabling -> Disabled.
type EnableState uint8

const (
	Disabled EnableState = iota
	Enabling
	Enabled
	Disabling
)

func (s EnableState) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Enabling:
		return "enabling"
	case Enabled:
		return "enabled"
	case Disabling:
		return "disabling"
	default:
		return "unknown"
	}
}

// MouseKind distinguishes click-type mouse ops (fired once per rising
// edge) from motion-type ops (accumulated per tick), left as a caller
// classification since the op catalogue itself is opaque to the core.
type MouseKind uint8

const (
	MouseClick MouseKind = iota
	MouseMotion
)

// Publisher builds virtual-gamepad reports from resolved mapping outputs,
// dispatches them to a VirtualPad, and drives keyboard auto-repeat and
// mouse dispatch through a SyntheticInput.
type Publisher struct {
	pad   VirtualPad
	input SyntheticInput

	mu           sync.Mutex
	enableState  EnableState
	lastStatus   string
	keyRepeater  *keyRepeater
	mouseKinds   map[string]MouseKind
	mousePrevHot map[string]bool

	testPulse atomic.Bool

	Status *status.Cell
}

// NewPublisher creates a publisher that dispatches to pad and input.
// mouseKinds classifies each mouse-op token the mapping table may target;
// tokens not listed default to MouseClick.
func NewPublisher(pad VirtualPad, input SyntheticInput, mouseKinds map[string]MouseKind) *Publisher {
	return &Publisher{
		pad:          pad,
		input:        input,
		keyRepeater:  newKeyRepeater(),
		mouseKinds:   mouseKinds,
		mousePrevHot: make(map[string]bool),
		Status:       status.NewCell(),
	}
}

// InjectTestPulse forces the next Publish call to substitute a
// recognizable extreme pattern (all sticks to corners, A|B|X|Y|LB|RB set)
// instead of the resolved outputs, for end-to-end verification of the
// virtual-pad wiring.
func (p *Publisher) InjectTestPulse() {
	p.testPulse.Store(true)
}

// EnableState returns the current output enable state.
func (p *Publisher) EnableState() EnableState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enableState
}

// Enable transitions Disabled -> Enabling -> Enabled. It re-plugs the
// virtual target (unplug then plug) and emits one neutral report to force
// OS enumeration; on failure it returns to Disabled with the error
// captured in LastStatus.
func (p *Publisher) Enable() error {
	p.mu.Lock()
	if p.enableState != Disabled {
		p.mu.Unlock()
		return nil
	}
	p.enableState = Enabling
	p.mu.Unlock()

	if err := p.pad.Connect(); err != nil {
		return p.fail(fmt.Errorf("publish: connect: %w", err))
	}
	_ = p.pad.UnplugTarget() // best-effort; target may not have existed
	if err := p.pad.PlugTarget(); err != nil {
		return p.fail(fmt.Errorf("publish: plug target: %w", err))
	}
	if err := p.pad.Update(PadReport{}); err != nil {
		return p.fail(fmt.Errorf("publish: neutral report: %w", err))
	}

	p.mu.Lock()
	p.enableState = Enabled
	p.lastStatus = ""
	p.mu.Unlock()
	p.Status.SetOk()
	return nil
}

func (p *Publisher) fail(err error) error {
	p.mu.Lock()
	p.enableState = Disabled
	p.lastStatus = err.Error()
	p.mu.Unlock()
	p.Status.SetDegraded(err.Error())
	return err
}

// Disable transitions Enabled -> Disabling -> Disabled, releasing all
// pressed keys, setting the pad to neutral, then unplugging the target.
func (p *Publisher) Disable() {
	p.mu.Lock()
	if p.enableState != Enabled {
		p.mu.Unlock()
		return
	}
	p.enableState = Disabling
	repeater := p.keyRepeater
	p.mu.Unlock()

	for _, ev := range repeater.releaseAll() {
		p.dispatchKey(ev)
	}
	_ = p.pad.Update(PadReport{})
	_ = p.pad.UnplugTarget()
	p.pad.Disconnect()

	p.mu.Lock()
	p.enableState = Disabled
	p.mu.Unlock()
}

// LastStatus returns the most recent backend error string (empty if ok).
func (p *Publisher) LastStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStatus
}

// Publish builds and sends one tick's virtual-pad report and dispatches
// key/mouse actions. now is the publisher's tick time, used for key
// auto-repeat timing. A virtual-pad update error is captured as
// LastStatus and does not tear down the pipeline; it is retried next tick.
func (p *Publisher) Publish(now float64, out mapping.Outputs) {
	p.mu.Lock()
	enabled := p.enableState == Enabled
	p.mu.Unlock()

	if p.testPulse.CompareAndSwap(true, false) {
		out = testPulseOutputs()
	}

	if enabled && p.pad.Ready() {
		rep := BuildReport(out)
		err := p.pad.Update(rep)
		p.mu.Lock()
		if err != nil {
			p.lastStatus = err.Error()
		} else {
			p.lastStatus = ""
		}
		p.mu.Unlock()
		if err != nil {
			p.Status.SetDegraded(err.Error())
		} else {
			p.Status.SetOk()
		}
	}

	p.publishKeys(now, out.Keys)
	p.publishMouse(out.Mouse)
}

func (p *Publisher) publishKeys(now float64, desiredDown map[uint32]bool) {
	if !p.keyRepeater.gotTimingFromHost && p.input != nil {
		initial, interval := p.input.QueryKeyRepeat()
		p.keyRepeater.setTiming(initial, interval)
	}
	for _, ev := range p.keyRepeater.tick(now, desiredDown) {
		p.dispatchKey(ev)
	}
}

func (p *Publisher) dispatchKey(ev keyEvent) {
	if p.input == nil {
		return
	}
	extended, scanCode := scanCodeFor(ev.vk)
	_ = p.input.Key(ev.vk, ev.down, extended, scanCode)
}

// publishMouse fires click-type ops once per rising edge of desired-down
// and dispatches motion-type ops every tick they are hot, with magnitude
// taken from the resolved signal's own hotness (the op catalogue is
// opaque; the core just forwards the edge/level it computed).
func (p *Publisher) publishMouse(desiredDown map[string]bool) {
	if p.input == nil {
		return
	}
	for op, hot := range desiredDown {
		kind := p.mouseKinds[op]
		prevHot := p.mousePrevHot[op]
		switch kind {
		case MouseMotion:
			if hot {
				_ = p.input.Mouse(op, 1.0)
			}
		default: // MouseClick
			if hot && !prevHot {
				_ = p.input.Mouse(op, 1.0)
			}
		}
		p.mousePrevHot[op] = hot
	}
}

func testPulseOutputs() mapping.Outputs {
	return mapping.Outputs{
		Axes: map[mapping.AxisID]float32{
			mapping.AxisLX: -1, mapping.AxisLY: 1,
			mapping.AxisRX: 1, mapping.AxisRY: -1,
			mapping.AxisLT: 1, mapping.AxisRT: 1,
		},
		Buttons: map[mapping.ButtonID]bool{
			mapping.ButtonA: true, mapping.ButtonB: true,
			mapping.ButtonX: true, mapping.ButtonY: true,
			mapping.ButtonLB: true, mapping.ButtonRB: true,
		},
		Keys:  map[uint32]bool{},
		Mouse: map[string]bool{},
	}
}

// scanCodeFor resolves the extended-key flag and scan code for a VK. The
// core treats this as a best-effort lookup table; adapters that need exact
// host scan codes can wrap SyntheticInput with their own table instead.
func scanCodeFor(vk uint32) (extended bool, scanCode uint16) {
	switch vk {
	case vkRight, vkLeft, vkUp, vkDown, vkInsert, vkDelete, vkHome, vkEnd, vkPageUp, vkPageDown:
		return true, 0
	default:
		return false, 0
	}
}

const (
	vkRight    = 0x27
	vkLeft     = 0x25
	vkUp       = 0x26
	vkDown     = 0x28
	vkInsert   = 0x2D
	vkDelete   = 0x2E
	vkHome     = 0x24
	vkEnd      = 0x23
	vkPageUp   = 0x21
	vkPageDown = 0x22
)
