package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func newTestFlagSet(args []string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.Parse(args)
	return fs
}

func TestLoadDefaults(t *testing.T) {
	fs := newTestFlagSet(nil)
	cfg, warnings, err := Load(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings for defaults, got %v", warnings)
	}
	if cfg.TargetHz != 1000 {
		t.Fatalf("expected default target hz 1000, got %v", cfg.TargetHz)
	}
	if cfg.VirtualOutputEnabled {
		t.Fatal("expected virtual output disabled by default")
	}
}

func TestLoadClampsOutOfRangeAndWarns(t *testing.T) {
	fs := newTestFlagSet([]string{"--analog-rate-pct=150", "--digital-min-hold-sec=-1"})
	cfg, warnings, err := Load(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AnalogRatePct != 100 {
		t.Fatalf("expected analog-rate-pct clamped to 100, got %v", cfg.AnalogRatePct)
	}
	if cfg.DigitalMinHoldSec != 0 {
		t.Fatalf("expected digital-min-hold-sec clamped to 0, got %v", cfg.DigitalMinHoldSec)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 clamp warnings, got %v", warnings)
	}
}

func TestLoadOverridesFromFlags(t *testing.T) {
	fs := newTestFlagSet([]string{"--target-hz=500", "--virtual-output-enabled=true"})
	cfg, _, err := Load(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TargetHz != 500 {
		t.Fatalf("expected target hz 500, got %v", cfg.TargetHz)
	}
	if !cfg.VirtualOutputEnabled {
		t.Fatal("expected virtual output enabled")
	}
}

func TestFilterParamsDerivedFromConfig(t *testing.T) {
	cfg := Config{AnalogRatePct: 10, DigitalMinHoldSec: 0.02}
	p := cfg.FilterParams()
	if p.AnalogRatePct != 10 || p.DigitalMinHoldSec != 0.02 {
		t.Fatalf("unexpected filter params: %+v", p)
	}
}
