// Package publish builds virtual-gamepad reports from resolved mapping
// outputs, dispatches keyboard/mouse actions with auto-repeat, and manages
// the virtual-pad enable/disable state machine.
package publish

import "github.com/soar/hotasd/internal/mapping"

// PadReport is the wire-exact virtual-gamepad report.
type PadReport struct {
	Buttons uint16
	LT, RT  uint8
	LX, LY  int16
	RX, RY  int16
}

// buttonBit maps a ButtonID to its report bit, per spec.md's wire table.
// Bits 10-11 are reserved and never set in the outgoing report (a trigger
// forced into digital mode still travels as LT/RT); 14=X, 15=Y.
var buttonBit = map[mapping.ButtonID]uint16{
	mapping.ButtonDPadUp:    0,
	mapping.ButtonDPadDown:  1,
	mapping.ButtonDPadLeft:  2,
	mapping.ButtonDPadRight: 3,
	mapping.ButtonStart:     4,
	mapping.ButtonBack:      5,
	mapping.ButtonL3:        6,
	mapping.ButtonR3:        7,
	mapping.ButtonLB:        8,
	mapping.ButtonRB:        9,
	mapping.ButtonA:         12,
	mapping.ButtonB:         13,
	mapping.ButtonX:         14,
	mapping.ButtonY:         15,
}

// BuildReport converts resolved outputs into the wire PadReport. Axis
// values in [-1,1] map to i16 via v*32767 (v>=0) or v*32768 (v<0), clamped;
// ly/ry carry an inverted sign relative to the logical convention (logical
// up = positive, report up = negative). Trigger values in [0,1] map to u8
// via round(v*255), clamped.
func BuildReport(out mapping.Outputs) PadReport {
	var rep PadReport
	rep.LX = axisToI16(out.Axes[mapping.AxisLX])
	rep.LY = axisToI16(-out.Axes[mapping.AxisLY])
	rep.RX = axisToI16(out.Axes[mapping.AxisRX])
	rep.RY = axisToI16(-out.Axes[mapping.AxisRY])
	rep.LT = triggerToU8(out.Axes[mapping.AxisLT])
	rep.RT = triggerToU8(out.Axes[mapping.AxisRT])

	var mask uint16
	for btn, pressed := range out.Buttons {
		if pressed {
			if bit, ok := buttonBit[btn]; ok {
				mask |= 1 << bit
			}
		}
	}
	rep.Buttons = mask
	return rep
}

func axisToI16(v float32) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	if v >= 0 {
		return int16(v * 32767)
	}
	return int16(v * 32768)
}

func triggerToU8(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
