package mapping

import (
	"math"
	"sort"

	"github.com/soar/hotasd/internal/signal"
)

// ValueSource supplies the current filtered value for a signal; the
// acquisition core's latest-values map satisfies this.
type ValueSource interface {
	Value(key signal.Key) (float32, bool)
}

// Outputs is one tick's resolved assignment across every output kind.
type Outputs struct {
	Axes    map[AxisID]float32
	Buttons map[ButtonID]bool
	Keys    map[uint32]bool   // desired-down set, by VK
	Mouse   map[string]bool   // desired-down set, by opaque mouse-op token
}

func newOutputs() Outputs {
	return Outputs{
		Axes:    make(map[AxisID]float32),
		Buttons: make(map[ButtonID]bool),
		Keys:    make(map[uint32]bool),
		Mouse:   make(map[string]bool),
	}
}

// Resolver groups mapping entries by output target and resolves each
// group's value every tick using priority and deadband.
type Resolver struct {
	table *Table
}

// NewResolver creates a resolver reading from table.
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve computes this tick's output assignment from the current signal
// values in src.
func (r *Resolver) Resolve(src ValueSource) Outputs {
	entries := r.table.List()
	groups := make(map[groupKey][]Entry)
	for _, e := range entries {
		groups[e.Action.group()] = append(groups[e.Action.group()], e)
	}

	out := newOutputs()
	for gk, members := range groups {
		sortByPriorityThenID(members)
		switch gk.kind {
		case ActionAxis:
			out.Axes[gk.axis] = resolveAxis(members, src)
		case ActionButton:
			out.Buttons[gk.button] = resolveButton(members, src)
		case ActionKey:
			out.Keys[gk.vk] = resolveOrGroup(members, src)
		case ActionMouse:
			out.Mouse[gk.mouse] = resolveOrGroup(members, src)
		}
	}
	return out
}

func sortByPriorityThenID(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].ID < entries[j].ID
	})
}

func valueOf(e Entry, src ValueSource) float32 {
	v, ok := src.Value(e.SignalKey)
	if !ok {
		return 0
	}
	return v
}

// resolveAxis implements spec.md §4.7: the first mapping (in priority
// order) whose value exceeds its own deadband wins outright; if none
// exceeds its deadband, the value with the largest magnitude in the group
// wins (sign preserved, 0 if all are zero).
func resolveAxis(members []Entry, src ValueSource) float32 {
	var bestAbs float32 = -1
	var bestVal float32
	for _, e := range members {
		v := valueOf(e, src)
		if absf(v) > e.Deadband {
			return v
		}
		if absf(v) > bestAbs {
			bestAbs = absf(v)
			bestVal = v
		}
	}
	if bestAbs < 0 {
		return 0
	}
	return bestVal
}

// resolveButton implements the Button group's OR semantics: pressed if any
// mapping's signal value exceeds 0.5. Priority only affects enumeration
// order for deterministic iteration; it does not affect the OR result.
func resolveButton(members []Entry, src ValueSource) bool {
	for _, e := range members {
		if valueOf(e, src) > 0.5 {
			return true
		}
	}
	return false
}

// resolveOrGroup implements the Key/Mouse groups' OR semantics at a lower
// threshold (0.01), since keys and mouse ops are usually driven by digital
// or lightly-deadbanded analog signals rather than full-range axes.
func resolveOrGroup(members []Entry, src ValueSource) bool {
	for _, e := range members {
		if absf(valueOf(e, src)) > 0.01 {
			return true
		}
	}
	return false
}

func absf(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
