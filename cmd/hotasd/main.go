// Command hotasd runs the HOTAS remapping pipeline: acquisition, filtering,
// mapping resolution, and virtual-gamepad/keyboard/mouse publishing, with a
// system-tray control surface to enable/disable output and reload the
// mapping table without restarting.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/hotasd/config"
	"github.com/soar/hotasd/internal/acquire"
	"github.com/soar/hotasd/internal/adapter/sdljoystick"
	"github.com/soar/hotasd/internal/console"
	"github.com/soar/hotasd/internal/control"
	"github.com/soar/hotasd/internal/filter"
	"github.com/soar/hotasd/internal/mapping"
	"github.com/soar/hotasd/internal/pipeline"
	"github.com/soar/hotasd/internal/publish"
	"github.com/soar/hotasd/internal/signal"
	"github.com/soar/hotasd/internal/tray"
)

// ringCapacity is the per-signal sample ring size: 2^19 holds roughly
// 1kHz*60s plus headroom, as sized in spec.md's default.
const ringCapacity = 1 << 19

// shutdownSignals mirrors the teacher's cross-platform signal set.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	fs := pflag.NewFlagSet("hotasd", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, warnings, err := config.Load(fs)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	for _, w := range warnings {
		log.Println(w)
	}

	ds := loadDescriptorSet(cfg.BitmapPath)
	log.Printf("active bit-map (%d signals):", len(ds.List()))
	for _, d := range ds.List() {
		log.Printf("  %s  bits[%d:%d]  analog=%v  %q", d.Key, d.BitStart, d.BitCount, d.Analog, d.DisplayName)
	}

	table := loadMappingTable(cfg.MappingPath)

	engine := filter.NewEngine(cfg.FilterParams())
	applyPerSignalConfig(engine, ds, cfg)

	source := sdljoystick.New()
	core := acquire.New(ds, engine, source, ringCapacity)
	source.SetClock(core.Clock())
	openConfiguredDevices(core, ds)

	resolver := mapping.NewResolver(table)
	publisher := publish.NewPublisher(padBackend(), inputBackend(), nil)
	surf := control.New(engine, publisher, ds)
	surf.SetWindowSeconds(cfg.WindowSeconds)
	if cfg.VirtualOutputEnabled {
		if err := surf.SetOutputEnabled(true); err != nil {
			log.Printf("enable output: %v", err)
		}
	}

	pl := pipeline.New(core, resolver, publisher, cfg.TargetHz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	consoleShutdown := make(chan struct{})
	reregisterConsoleHandler := console.SetupConsoleHandler(consoleShutdown)

	pipelineDone := make(chan struct{})
	go func() {
		pl.Run(ctx)
		close(pipelineDone)
	}()
	// SDL3 registers its own console control handler during Init (already
	// triggered by openConfiguredDevices above), which can shadow ours;
	// register ours once more after the pipeline goroutine has started.
	time.Sleep(50 * time.Millisecond)
	reregisterConsoleHandler()

	trayShutdown := make(chan struct{})
	go tray.New(surf,
		func() error { return reloadMapping(table, cfg.MappingPath) },
		func() { close(trayShutdown) },
	).Run(tray.GetIcon())

	select {
	case <-sigCh:
		log.Println("shutting down...")
	case <-consoleShutdown:
		log.Println("shutting down (console handler)...")
	case <-trayShutdown:
		log.Println("shutting down (tray)...")
	}

	cancel()

	select {
	case <-pipelineDone:
	case <-time.After(5 * time.Second):
		log.Println("pipeline shutdown timed out")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	shutdownDone := make(chan struct{})
	go func() {
		pl.Shutdown()
		close(shutdownDone)
	}()
	select {
	case <-shutdownDone:
	case <-shutdownCtx.Done():
		log.Println("publisher/device shutdown timed out")
	}

	log.Println("hotasd stopped")
}

func loadDescriptorSet(path string) *signal.DescriptorSet {
	if path == "" {
		return defaultBitmap()
	}
	ds, err := loadBitmap(path)
	if err != nil {
		log.Printf("bitmap: %v; falling back to default gamepad layout", err)
		return defaultBitmap()
	}
	return ds
}

func loadMappingTable(path string) *mapping.Table {
	if path == "" {
		return mapping.NewTable()
	}
	table, err := loadMapping(path)
	if err != nil {
		log.Printf("mapping: %v; starting with an empty mapping table", err)
		return mapping.NewTable()
	}
	return table
}

// reloadMapping re-parses path and installs the result into table in
// place, so the already-wired *mapping.Resolver sees the change on its
// next tick without any pointer to swap.
func reloadMapping(table *mapping.Table, path string) error {
	if path == "" {
		return nil
	}
	entries, err := loadMappingEntries(path)
	if err != nil {
		return err
	}
	table.ReplaceAll(entries)
	return nil
}

// applyPerSignalConfig pushes the config's per-signal mode overrides and
// trigger-digital force flags into the filter engine, by name against the
// descriptor set, warning (not failing) on anything unresolvable.
func applyPerSignalConfig(engine *filter.Engine, ds *signal.DescriptorSet, cfg config.Config) {
	for raw, modeName := range cfg.PerSignalMode {
		key, ok := parseConfigSignalKey(raw, ds)
		if !ok {
			log.Printf("config: per_signal_mode: unresolvable signal %q, skipped", raw)
			continue
		}
		mode, ok := parseConfigModeName(modeName)
		if !ok {
			log.Printf("config: per_signal_mode: unknown mode %q for %q, skipped", modeName, raw)
			continue
		}
		engine.SetMode(key, mode)
	}
	if cfg.TriggerLeftDigital {
		engine.SetForceBinary(signal.Key{Device: signal.Gamepad, ID: "throttle_left"}, true)
	}
	if cfg.TriggerRightDigital {
		engine.SetForceBinary(signal.Key{Device: signal.Gamepad, ID: "throttle_right"}, true)
	}
}

func parseConfigModeName(name string) (filter.Mode, bool) {
	switch name {
	case "none":
		return filter.ModeNone, true
	case "digital":
		return filter.ModeDigital, true
	case "analog":
		return filter.ModeAnalog, true
	default:
		return 0, false
	}
}

func parseConfigSignalKey(raw string, ds *signal.DescriptorSet) (signal.Key, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			dev, ok := signal.ParseDevice(raw[:i])
			if !ok {
				return signal.Key{}, false
			}
			return signal.Key{Device: dev, ID: raw[i+1:]}, true
		}
	}
	dev, ok := ds.ResolveUniqueDevice(raw)
	if !ok {
		return signal.Key{}, false
	}
	return signal.Key{Device: dev, ID: raw}, true
}

// openConfiguredDevices opens one SDL joystick per descriptor-set device
// kind present in ds, best-effort: a missing stick or throttle degrades
// that device's signals to "never updated" rather than aborting startup.
// An empty path asks the adapter to claim the next unopened joystick,
// which is enough to exercise a single physical controller under any of
// the three device roles during local testing.
func openConfiguredDevices(core *acquire.Core, ds *signal.DescriptorSet) {
	seen := map[signal.Device]bool{}
	for _, d := range ds.List() {
		seen[d.Key.Device] = true
	}
	for dev := range seen {
		if err := core.OpenDevice(dev, ""); err != nil {
			log.Printf("open %s: %v", dev, err)
		}
	}
}
