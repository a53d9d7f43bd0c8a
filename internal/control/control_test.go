package control

import (
	"testing"

	"github.com/soar/hotasd/internal/filter"
	"github.com/soar/hotasd/internal/publish"
	"github.com/soar/hotasd/internal/signal"
)

type noopPad struct{}

func (noopPad) Connect() error            { return nil }
func (noopPad) Disconnect()               {}
func (noopPad) PlugTarget() error         { return nil }
func (noopPad) UnplugTarget() error       { return nil }
func (noopPad) Update(publish.PadReport) error { return nil }
func (noopPad) Ready() bool               { return true }
func (noopPad) LastError() (string, bool) { return "", false }

func newTestSurface(t *testing.T) *Surface {
	ds, err := signal.NewDescriptorSet([]signal.Descriptor{
		{Key: signal.Key{Device: signal.Stick, ID: "joy_x"}, BitStart: 0, BitCount: 8},
		{Key: signal.Key{Device: signal.Throttle, ID: "throttle"}, BitStart: 0, BitCount: 8},
	})
	if err != nil {
		t.Fatal(err)
	}
	engine := filter.NewEngine(filter.Params{})
	pub := publish.NewPublisher(noopPad{}, nil, nil)
	return New(engine, pub, ds)
}

func TestDefaultWindowSeconds(t *testing.T) {
	s := newTestSurface(t)
	if s.WindowSeconds() != defaultWindowSeconds {
		t.Fatalf("expected default window %v, got %v", defaultWindowSeconds, s.WindowSeconds())
	}
	s.SetWindowSeconds(10)
	if s.WindowSeconds() != 10 {
		t.Fatalf("expected 10, got %v", s.WindowSeconds())
	}
	s.SetWindowSeconds(-5)
	if s.WindowSeconds() != 0 {
		t.Fatalf("expected negative window clamped to 0, got %v", s.WindowSeconds())
	}
}

func TestSetSignalModeByName(t *testing.T) {
	s := newTestSurface(t)
	if !s.SetSignalModeByName("stick:joy_x", "analog") {
		t.Fatal("expected prefixed key + valid mode to succeed")
	}
	key := signal.Key{Device: signal.Stick, ID: "joy_x"}
	if s.engine.Mode(key) != filter.ModeAnalog {
		t.Fatalf("expected ModeAnalog, got %v", s.engine.Mode(key))
	}

	if s.SetSignalModeByName("stick:joy_x", "bogus") {
		t.Fatal("expected unknown mode name to fail")
	}
	if s.SetSignalModeByName("unknown:thing", "analog") {
		t.Fatal("expected unresolvable key to fail")
	}
}

func TestSetSignalModeByNameMigratesUnprefixedUniqueID(t *testing.T) {
	s := newTestSurface(t)
	if !s.SetSignalModeByName("throttle", "digital") {
		t.Fatal("expected unprefixed unique id to resolve via ResolveUniqueDevice")
	}
	key := signal.Key{Device: signal.Throttle, ID: "throttle"}
	if s.engine.Mode(key) != filter.ModeDigital {
		t.Fatalf("expected ModeDigital, got %v", s.engine.Mode(key))
	}
}

func TestOutputEnableDisable(t *testing.T) {
	s := newTestSurface(t)
	if s.OutputEnabled() {
		t.Fatal("expected output disabled by default")
	}
	if err := s.SetOutputEnabled(true); err != nil {
		t.Fatalf("unexpected error enabling: %v", err)
	}
	if !s.OutputEnabled() {
		t.Fatal("expected output enabled")
	}
	if err := s.SetOutputEnabled(false); err != nil {
		t.Fatalf("unexpected error disabling: %v", err)
	}
	if s.OutputEnabled() {
		t.Fatal("expected output disabled")
	}
}

func TestSetTriggerDigitalForcesFilterEngine(t *testing.T) {
	s := newTestSurface(t)
	key := signal.Key{Device: signal.Throttle, ID: "throttle"}
	s.SetTriggerDigital(key, true)
	out := s.engine.Apply(key, 8, 0, 0.7)
	if out != 0.0 {
		t.Fatalf("expected forced-binary rising edge to read inactive until held, got %v", out)
	}
}
