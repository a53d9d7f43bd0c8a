package signal

import "github.com/soar/hotasd/internal/bitfield"

// full-range joystick axis ids normalize to [-1, 1] using the extracted
// bit width's own max value.
var joystickAxisIDs = map[string]bool{
	"joy_x": true,
	"joy_y": true,
	"joy_z": true,
}

// 8-bit thumb/C-joystick axis ids normalize to [-1, 1] using a fixed max
// of 255 regardless of bit width, matching the source device's convention.
var thumbAxisIDs = map[string]bool{
	"thumb_joy_x": true,
	"thumb_joy_y": true,
}

// throttle rail ids normalize to [0, 1].
var throttleIDs = map[string]bool{
	"throttle": true,
	"throttle_left": true,
	"throttle_right": true,
}

// Value is one decoded (key, logical value) pair for a tick.
type Value struct {
	Key Key
	V   float32
}

// Decode applies every descriptor in ds to report and returns the decoded
// logical values. A descriptor whose last required bit falls past the end
// of report is skipped for this tick rather than aborting the rest of the
// decode (a descriptor violation is non-fatal, per the error handling
// design).
func Decode(ds *DescriptorSet, report []byte) []Value {
	descs := ds.List()
	out := make([]Value, 0, len(descs))
	for _, d := range descs {
		lastBit := int(d.BitStart) + int(d.BitCount) - 1
		if lastBit/8 >= len(report) {
			continue
		}
		raw := bitfield.Extract(report, d.BitStart, d.BitCount)
		out = append(out, Value{Key: d.Key, V: normalize(d, raw)})
	}
	return out
}

// DecodeOne decodes a single descriptor against report, reporting ok=false
// if the descriptor's bits fall outside the report.
func DecodeOne(d Descriptor, report []byte) (float32, bool) {
	lastBit := int(d.BitStart) + int(d.BitCount) - 1
	if lastBit/8 >= len(report) {
		return 0, false
	}
	raw := bitfield.Extract(report, d.BitStart, d.BitCount)
	return normalize(d, raw), true
}

func normalize(d Descriptor, raw uint64) float32 {
	maxRaw := float64((uint64(1) << d.BitCount) - 1)

	switch {
	case joystickAxisIDs[d.Key.ID]:
		v := float64(raw)/maxRaw*2 - 1
		return float32(v)
	case thumbAxisIDs[d.Key.ID]:
		v := float64(raw)/255*2 - 1
		return float32(v)
	case throttleIDs[d.Key.ID]:
		v := float64(raw) / maxRaw
		return float32(v)
	case d.Analog:
		return float32(raw)
	default:
		// digital: raw integer as float32; for 1-bit signals this is 0.0 or 1.0.
		return float32(raw)
	}
}
