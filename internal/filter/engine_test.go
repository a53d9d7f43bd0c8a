package filter

import (
	"testing"

	"github.com/soar/hotasd/internal/signal"
)

func keyFor(id string) signal.Key { return signal.Key{Device: signal.Stick, ID: id} }

func TestGhostPressRejectionS1(t *testing.T) {
	e := NewEngine(Params{DigitalMinHoldSec: 0.005})
	k := keyFor("btn")
	e.SetMode(k, ModeDigital)

	type step struct {
		t   float64
		raw float32
		out float32
	}
	steps := []step{
		{0.000, 0, 0},
		{0.001, 1, 0},
		{0.003, 0, 0},
		{0.010, 0, 0},
	}
	for _, s := range steps {
		got := e.Apply(k, 1, s.t, s.raw)
		if got != s.out {
			t.Fatalf("t=%v: got %v want %v", s.t, got, s.out)
		}
	}
}

func TestLegitimatePressS2(t *testing.T) {
	e := NewEngine(Params{DigitalMinHoldSec: 0.005})
	k := keyFor("btn")
	e.SetMode(k, ModeDigital)

	type step struct {
		t   float64
		raw float32
		out float32
	}
	steps := []step{
		{0.000, 0, 0},
		{0.001, 1, 0},
		{0.006, 1, 1},
		{0.020, 1, 1},
		{0.021, 0, 0},
	}
	for _, s := range steps {
		got := e.Apply(k, 1, s.t, s.raw)
		if got != s.out {
			t.Fatalf("t=%v: got %v want %v", s.t, got, s.out)
		}
	}
}

func TestAnalogRateLimitS3(t *testing.T) {
	e := NewEngine(Params{AnalogRatePct: 10})
	k := keyFor("axis")
	e.SetMode(k, ModeAnalog)

	inputs := []float32{0.00, 0.50, 0.55, 0.10}
	expected := []float32{0.00, 0.20, 0.40, 0.20}
	for i, in := range inputs {
		got := e.Apply(k, 16, float64(i), in)
		if diff := got - expected[i]; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("step %d: got %v want %v", i, got, expected[i])
		}
	}
}

func TestConstantInputPassesThroughUnchangedAfterInit(t *testing.T) {
	for _, mode := range []Mode{ModeAnalog} {
		e := NewEngine(Params{AnalogRatePct: 10})
		k := keyFor("axis")
		e.SetMode(k, mode)
		e.Apply(k, 16, 0, 0.3) // initialize
		for i := 1; i < 5; i++ {
			got := e.Apply(k, 16, float64(i), 0.3)
			if got != 0.3 {
				t.Fatalf("constant input mutated: got %v", got)
			}
		}
	}
}

func TestAnalogRateLimitNeverExceedsMaxStep(t *testing.T) {
	e := NewEngine(Params{AnalogRatePct: 5}) // maxStep = 0.1
	k := keyFor("axis")
	e.SetMode(k, ModeAnalog)

	seq := []float32{-1, 1, -1, 0.9, -0.9, 0}
	prev := e.Apply(k, 16, 0, seq[0])
	for i := 1; i < len(seq); i++ {
		out := e.Apply(k, 16, float64(i), seq[i])
		diff := out - prev
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.1+1e-6 {
			t.Fatalf("step %d: |delta|=%v exceeds max step 0.1", i, diff)
		}
		prev = out
	}
}

func TestMultiBitDiscreteGate(t *testing.T) {
	e := NewEngine(Params{DigitalMinHoldSec: 0.01})
	k := keyFor("hat")
	e.SetMode(k, ModeDigital)

	// first sample initializes immediately
	if got := e.Apply(k, 4, 0.0, 1); got != 1 {
		t.Fatalf("initial sample: got %v want 1", got)
	}
	// change starts the timer, held output stays at old value
	if got := e.Apply(k, 4, 0.002, 2); got != 1 {
		t.Fatalf("unstable change: got %v want hold at 1", got)
	}
	// still not stable long enough
	if got := e.Apply(k, 4, 0.008, 2); got != 1 {
		t.Fatalf("still within hold window: got %v want 1", got)
	}
	// stable long enough now -> promote
	if got := e.Apply(k, 4, 0.013, 2); got != 2 {
		t.Fatalf("promoted: got %v want 2", got)
	}
}

func TestBypassForcesNoneRegardlessOfMode(t *testing.T) {
	e := NewEngine(Params{DigitalMinHoldSec: 1.0})
	k := keyFor("btn")
	e.SetMode(k, ModeDigital)
	e.SetBypass(k, true)

	// Without bypass this pulse would never be promoted (hold=1s); with
	// bypass it should pass straight through.
	got := e.Apply(k, 1, 0.0, 1)
	if got != 1 {
		t.Fatalf("bypassed signal: got %v want 1 (passthrough)", got)
	}
}

func TestForceBinaryThresholdsBeforeGate(t *testing.T) {
	e := NewEngine(Params{DigitalMinHoldSec: 0.0})
	k := keyFor("rt")
	e.SetForceBinary(k, true)

	e.Apply(k, 16, 0.0, 0.7) // rising edge, not yet promoted
	got := e.Apply(k, 16, 0.0001, 0.7) // held high, zero hold -> promoted
	if got != 1 {
		t.Fatalf("force-binary threshold: got %v want 1", got)
	}
	got2 := e.Apply(k, 16, 0.001, 0.3)
	if got2 != 0 {
		t.Fatalf("force-binary threshold: got %v want 0", got2)
	}
}
