package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/soar/hotasd/internal/mapping"
	"github.com/soar/hotasd/internal/signal"
)

var axisNames = map[string]mapping.AxisID{
	"lx": mapping.AxisLX, "ly": mapping.AxisLY,
	"rx": mapping.AxisRX, "ry": mapping.AxisRY,
	"lt": mapping.AxisLT, "rt": mapping.AxisRT,
}

var buttonNames = map[string]mapping.ButtonID{
	"a": mapping.ButtonA, "b": mapping.ButtonB, "x": mapping.ButtonX, "y": mapping.ButtonY,
	"lb": mapping.ButtonLB, "rb": mapping.ButtonRB,
	"start": mapping.ButtonStart, "back": mapping.ButtonBack,
	"l3": mapping.ButtonL3, "r3": mapping.ButtonR3,
	"dpad_up": mapping.ButtonDPadUp, "dpad_down": mapping.ButtonDPadDown,
	"dpad_left": mapping.ButtonDPadLeft, "dpad_right": mapping.ButtonDPadRight,
}

// loadMapping reads a mapping CSV with the header
// device,id,kind,target,priority,deadband
// where kind is axis|button|key|mouse and target names the AxisID/ButtonID
// (e.g. "lx"), a hex VK code (e.g. "0x41"), or an opaque mouse-op token
// (e.g. "mouse:left_click"). An axis row with an empty deadband takes
// mapping.DefaultAxisDeadband. Like the bit-map reader, this is local
// startup convenience, not the core's concern — the core only ever
// consumes an already-built *mapping.Table.
func loadMapping(path string) (*mapping.Table, error) {
	entries, err := loadMappingEntries(path)
	if err != nil {
		return nil, err
	}
	table := mapping.NewTable()
	table.ReplaceAll(entries)
	return table, nil
}

// loadMappingEntries parses a mapping CSV into entries without allocating a
// fresh Table, so a reload can install them into an existing one via
// Table.ReplaceAll instead of swapping the *Table pointer a Resolver holds.
func loadMappingEntries(path string) ([]mapping.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("mapping: parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("mapping: %s is empty", path)
	}

	entries := make([]mapping.Entry, 0, len(rows)-1)
	for i, row := range rows[1:] { // skip header
		lineNo := i + 2
		if len(row) < 6 {
			return nil, fmt.Errorf("mapping: %s:%d: expected 6 columns, got %d", path, lineNo, len(row))
		}
		dev, ok := signal.ParseDevice(row[0])
		if !ok {
			return nil, fmt.Errorf("mapping: %s:%d: unknown device %q", path, lineNo, row[0])
		}
		action, err := parseAction(row[2], row[3])
		if err != nil {
			return nil, fmt.Errorf("mapping: %s:%d: %w", path, lineNo, err)
		}
		priority, err := strconv.ParseInt(row[4], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("mapping: %s:%d: bad priority %q: %w", path, lineNo, row[4], err)
		}
		deadband := float64(mapping.DefaultAxisDeadband)
		if row[5] != "" || action.Kind != mapping.ActionAxis {
			deadband, err = strconv.ParseFloat(row[5], 32)
			if err != nil {
				return nil, fmt.Errorf("mapping: %s:%d: bad deadband %q: %w", path, lineNo, row[5], err)
			}
		}
		entries = append(entries, mapping.NewEntry("", signal.Key{Device: dev, ID: row[1]}, action, int32(priority), float32(deadband)))
	}
	return entries, nil
}

func parseAction(kind, target string) (mapping.Action, error) {
	switch kind {
	case "axis":
		axis, ok := axisNames[target]
		if !ok {
			return mapping.Action{}, fmt.Errorf("unknown axis target %q", target)
		}
		return mapping.Action{Kind: mapping.ActionAxis, Axis: axis}, nil
	case "button":
		btn, ok := buttonNames[target]
		if !ok {
			return mapping.Action{}, fmt.Errorf("unknown button target %q", target)
		}
		return mapping.Action{Kind: mapping.ActionButton, Button: btn}, nil
	case "key":
		vk, err := strconv.ParseUint(target, 0, 32)
		if err != nil {
			return mapping.Action{}, fmt.Errorf("bad VK target %q: %w", target, err)
		}
		return mapping.Action{Kind: mapping.ActionKey, VK: uint32(vk)}, nil
	case "mouse":
		return mapping.Action{Kind: mapping.ActionMouse, Mouse: target}, nil
	default:
		return mapping.Action{}, fmt.Errorf("unknown action kind %q", kind)
	}
}
