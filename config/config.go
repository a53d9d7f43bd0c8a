// Package config loads the core's runtime settings from flags, a config
// file and the environment, layered with github.com/spf13/viper and
// github.com/spf13/pflag — the same pair the teacher's root module
// requires for its own settings surface, given a home here instead.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/hotasd/internal/filter"
)

// Config is the parsed, validated settings struct handed to
// internal/control.Surface at startup.
type Config struct {
	TargetHz            float64
	AnalogRatePct       float32
	DigitalMinHoldSec   float64
	WindowSeconds       float64
	TriggerLeftDigital  bool
	TriggerRightDigital bool
	VirtualOutputEnabled bool
	BitmapPath          string
	MappingPath         string
	PerSignalMode       map[string]string // "device:id" -> "none"|"digital"|"analog"
}

// FilterParams extracts the default filter parameters from the config.
func (c Config) FilterParams() filter.Params {
	return filter.Params{AnalogRatePct: c.AnalogRatePct, DigitalMinHoldSec: c.DigitalMinHoldSec}.Clamp()
}

// RegisterFlags defines the pflag flags this config understands. Call
// before pflag.Parse().
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Float64("target-hz", 1000, "acquisition/publisher tick rate")
	fs.Float32("analog-rate-pct", 10, "analog rate-limit step, percent of full range per tick")
	fs.Float64("digital-min-hold-sec", 0.015, "minimum hold duration before a digital press is promoted")
	fs.Float64("window-seconds", 5, "default snapshot window length")
	fs.Bool("trigger-left-digital", false, "force the left trigger into binary-digital mode")
	fs.Bool("trigger-right-digital", false, "force the right trigger into binary-digital mode")
	fs.Bool("virtual-output-enabled", false, "enable virtual-gamepad output on startup")
	fs.String("bitmap", "", "path to the bit-map file describing device signals")
	fs.String("mapping", "", "path to the persisted mapping-table file")
	fs.String("config", "", "path to a config file (yaml/json/toml)")
}

// Load builds a viper instance layered flags > env > config file > defaults,
// binds it to fs, and produces a validated Config. Out-of-range numeric
// values are clamped rather than rejected, per the error-handling design's
// "configuration out of range: clamp, emit one-shot warning" rule.
func Load(fs *pflag.FlagSet) (Config, []string, error) {
	v := viper.New()
	v.SetEnvPrefix("HOTASD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, nil, fmt.Errorf("config: bind flags: %w", err)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var warnings []string
	cfg := Config{
		TargetHz:             clampFloat(v.GetFloat64("target-hz"), 10, 8000, "target-hz", &warnings),
		AnalogRatePct:        float32(clampFloat(v.GetFloat64("analog-rate-pct"), 0, 100, "analog-rate-pct", &warnings)),
		DigitalMinHoldSec:    clampFloat(v.GetFloat64("digital-min-hold-sec"), 0, 5, "digital-min-hold-sec", &warnings),
		WindowSeconds:        clampFloat(v.GetFloat64("window-seconds"), 0, 60, "window-seconds", &warnings),
		TriggerLeftDigital:   v.GetBool("trigger-left-digital"),
		TriggerRightDigital:  v.GetBool("trigger-right-digital"),
		VirtualOutputEnabled: v.GetBool("virtual-output-enabled"),
		BitmapPath:           v.GetString("bitmap"),
		MappingPath:          v.GetString("mapping"),
		PerSignalMode:        stringMapFromViper(v, "per-signal-mode"),
	}
	return cfg, warnings, nil
}

func clampFloat(v, min, max float64, key string, warnings *[]string) float64 {
	if v < min {
		*warnings = append(*warnings, fmt.Sprintf("config: %s=%v below minimum %v, clamped", key, v, min))
		return min
	}
	if v > max {
		*warnings = append(*warnings, fmt.Sprintf("config: %s=%v above maximum %v, clamped", key, v, max))
		return max
	}
	return v
}

func stringMapFromViper(v *viper.Viper, key string) map[string]string {
	raw := v.GetStringMapString(key)
	if raw == nil {
		return map[string]string{}
	}
	return raw
}
