package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/soar/hotasd/internal/signal"
)

// loadBitmap reads a bit-map CSV with the header
// device,id,display_name,bit_start,bit_count,analog
// and builds a DescriptorSet. This is local testing/startup convenience,
// not a core feature — the core only ever consumes an already-built
// DescriptorSet.
func loadBitmap(path string) (*signal.DescriptorSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bitmap: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bitmap: parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bitmap: %s is empty", path)
	}

	descs := make([]signal.Descriptor, 0, len(rows)-1)
	for i, row := range rows[1:] { // skip header
		lineNo := i + 2
		if len(row) < 6 {
			return nil, fmt.Errorf("bitmap: %s:%d: expected 6 columns, got %d", path, lineNo, len(row))
		}
		dev, ok := signal.ParseDevice(row[0])
		if !ok {
			return nil, fmt.Errorf("bitmap: %s:%d: unknown device %q", path, lineNo, row[0])
		}
		bitStart, err := strconv.ParseUint(row[3], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bitmap: %s:%d: bad bit_start %q: %w", path, lineNo, row[3], err)
		}
		bitCount, err := strconv.ParseUint(row[4], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("bitmap: %s:%d: bad bit_count %q: %w", path, lineNo, row[4], err)
		}
		analog, err := strconv.ParseBool(row[5])
		if err != nil {
			return nil, fmt.Errorf("bitmap: %s:%d: bad analog %q: %w", path, lineNo, row[5], err)
		}
		descs = append(descs, signal.Descriptor{
			Key:         signal.Key{Device: dev, ID: row[1]},
			DisplayName: row[2],
			BitStart:    uint16(bitStart),
			BitCount:    uint8(bitCount),
			Analog:      analog,
		})
	}

	return signal.NewDescriptorSet(descs)
}

// defaultBitmap is used when no --bitmap path is supplied: a single
// standard-gamepad layout matching internal/adapter/sdljoystick's 19-byte
// report (8 i16 axes, a 16-bit button mask, 1 hat byte), enough to run the
// pipeline against a plain gamepad without authoring a bit-map file.
func defaultBitmap() *signal.DescriptorSet {
	descs := []signal.Descriptor{
		{Key: signal.Key{Device: signal.Gamepad, ID: "joy_x"}, DisplayName: "Left Stick X", BitStart: 0, BitCount: 16, Analog: true},
		{Key: signal.Key{Device: signal.Gamepad, ID: "joy_y"}, DisplayName: "Left Stick Y", BitStart: 16, BitCount: 16, Analog: true},
		{Key: signal.Key{Device: signal.Gamepad, ID: "thumb_joy_x"}, DisplayName: "Right Stick X", BitStart: 32, BitCount: 16, Analog: true},
		{Key: signal.Key{Device: signal.Gamepad, ID: "thumb_joy_y"}, DisplayName: "Right Stick Y", BitStart: 48, BitCount: 16, Analog: true},
		{Key: signal.Key{Device: signal.Gamepad, ID: "throttle_left"}, DisplayName: "Left Trigger", BitStart: 64, BitCount: 16, Analog: true},
		{Key: signal.Key{Device: signal.Gamepad, ID: "throttle_right"}, DisplayName: "Right Trigger", BitStart: 80, BitCount: 16, Analog: true},
		{Key: signal.Key{Device: signal.Gamepad, ID: "A"}, DisplayName: "A", BitStart: 128, BitCount: 1, Analog: false},
		{Key: signal.Key{Device: signal.Gamepad, ID: "B"}, DisplayName: "B", BitStart: 129, BitCount: 1, Analog: false},
		{Key: signal.Key{Device: signal.Gamepad, ID: "X"}, DisplayName: "X", BitStart: 130, BitCount: 1, Analog: false},
		{Key: signal.Key{Device: signal.Gamepad, ID: "Y"}, DisplayName: "Y", BitStart: 131, BitCount: 1, Analog: false},
		{Key: signal.Key{Device: signal.Gamepad, ID: "LB"}, DisplayName: "Left Shoulder", BitStart: 132, BitCount: 1, Analog: false},
		{Key: signal.Key{Device: signal.Gamepad, ID: "RB"}, DisplayName: "Right Shoulder", BitStart: 133, BitCount: 1, Analog: false},
	}
	ds, err := signal.NewDescriptorSet(descs)
	if err != nil {
		panic(fmt.Sprintf("bitmap: default layout invalid: %v", err))
	}
	return ds
}
