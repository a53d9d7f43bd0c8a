package acquire

import (
	"fmt"
	"sync"

	"github.com/soar/hotasd/internal/clock"
	"github.com/soar/hotasd/internal/filter"
	"github.com/soar/hotasd/internal/ring"
	"github.com/soar/hotasd/internal/signal"
	"github.com/soar/hotasd/internal/status"
)

const staleThresholdSec = 0.5

// Sink receives a copy of the latest filtered values after every
// acquisition tick, e.g. to mirror them into a gamepad-poll consumer. It
// is called synchronously from the acquisition tick, so implementations
// must not block.
type Sink interface {
	Process(t float64, values map[signal.Key]float32)
}

// Core owns the acquisition loop: filter state and ring write ends are
// exclusively its own. All other components hold read-only handles.
type Core struct {
	clock  *clock.Clock
	ds     *signal.DescriptorSet
	engine *filter.Engine
	source DeviceSource

	mu      sync.RWMutex
	devices map[signal.Device]Handle
	rings   map[signal.Key]*ring.Ring
	latest  map[signal.Key]float32

	latestTime float64

	sink   Sink
	Status *status.Cell
}

// New creates an acquisition core over the given descriptor set, reading
// from source. ringCapacity must be a power of two (spec default 2^19 for
// 1kHz x 60s + headroom).
func New(ds *signal.DescriptorSet, engine *filter.Engine, source DeviceSource, ringCapacity uint32) *Core {
	c := &Core{
		clock:   clock.New(),
		ds:      ds,
		engine:  engine,
		source:  source,
		devices: make(map[signal.Device]Handle),
		rings:   make(map[signal.Key]*ring.Ring),
		latest:  make(map[signal.Key]float32),
		Status:  status.NewCell(),
	}
	for _, d := range ds.List() {
		c.rings[d.Key] = ring.New(ringCapacity)
	}
	return c
}

// SetSink installs (or clears, with nil) the optional per-tick sink.
func (c *Core) SetSink(s Sink) {
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

// OpenDevice opens path as device kind dev and registers its handle for
// the acquisition loop to poll.
func (c *Core) OpenDevice(dev signal.Device, path string) error {
	h, err := c.source.Open(path)
	if err != nil {
		return fmt.Errorf("acquire: open %s (%s): %w", dev, path, err)
	}
	c.mu.Lock()
	c.devices[dev] = h
	c.mu.Unlock()
	return nil
}

// CloseAll closes every open device handle.
func (c *Core) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for dev, h := range c.devices {
		_ = c.source.Close(h)
		delete(c.devices, dev)
	}
}

// Clock exposes the core's monotonic clock so other components (e.g. the
// publisher, when run on its own loop) can share the same time origin.
func (c *Core) Clock() *clock.Clock { return c.clock }

// Ring returns the sample ring for a signal, or nil if unknown.
func (c *Core) Ring(key signal.Key) *ring.Ring {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rings[key]
}

// LatestTime returns the timestamp of the most recently completed tick.
func (c *Core) LatestTime() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestTime
}

// Value implements mapping.ValueSource: the latest filtered value for key,
// or (0, false) if never observed.
func (c *Core) Value(key signal.Key) (float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.latest[key]
	return v, ok
}

// Tick runs one acquisition cycle: for each open device, pull its latest
// raw report, decode it against the descriptor set, filter each decoded
// value, write it to that signal's ring, and update the latest-value map.
// A transient I/O failure (stale or absent report) downgrades to "no
// update this tick" for that device; the clock still advances so
// consumers never see a falsely-idle latest_time.
func (c *Core) Tick() {
	if p, ok := c.source.(Pumper); ok {
		p.Pump()
	}

	t := c.clock.Now()

	c.mu.RLock()
	devices := make(map[signal.Device]Handle, len(c.devices))
	for k, v := range c.devices {
		devices[k] = v
	}
	c.mu.RUnlock()

	anyRead := false
	for dev, h := range devices {
		report, ts, ok := c.source.ReadLatest(h)
		if !ok || t-ts > staleThresholdSec {
			continue
		}
		anyRead = true
		c.decodeAndFilter(dev, t, report)
	}

	c.mu.Lock()
	c.latestTime = t
	snapshot := make(map[signal.Key]float32, len(c.latest))
	for k, v := range c.latest {
		snapshot[k] = v
	}
	sink := c.sink
	c.mu.Unlock()

	if anyRead && sink != nil {
		sink.Process(t, snapshot)
	}
}

func (c *Core) decodeAndFilter(dev signal.Device, t float64, report []byte) {
	for _, d := range c.ds.List() {
		if d.Key.Device != dev {
			continue
		}
		raw, ok := signal.DecodeOne(d, report)
		if !ok {
			continue // descriptor violation: skip this signal for this tick
		}
		filtered := c.engine.Apply(d.Key, d.BitCount, t, raw)

		c.mu.Lock()
		c.latest[d.Key] = filtered
		r := c.rings[d.Key]
		c.mu.Unlock()

		if r != nil {
			r.Push(t, filtered)
		}
	}
}
