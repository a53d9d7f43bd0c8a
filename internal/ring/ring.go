// Package ring implements the fixed-capacity sample ring used to record a
// signal's recent history: single writer, many readers, wait-free on the
// write side.
package ring

import "sync/atomic"

// Sample is one (time, value) observation. t is monotonic seconds since
// process start; v is the logical value in the signal's canonical range.
type Sample struct {
	T float64
	V float32
}

// Ring is a fixed-capacity power-of-two ring of samples. The writer calls
// Push from a single goroutine; Snapshot and SnapshotWithBaseline may be
// called concurrently from any number of reader goroutines.
//
// The writer fetches-and-increments the write index then stores into the
// slot; readers load the index with acquire ordering and walk the visible
// suffix. Slots near the tail can be torn if the writer wraps through them
// mid-read. That is accepted here, not defended against: consumers are
// visualizers and filters that tolerate an occasional duplicated or skipped
// edge.
type Ring struct {
	mask       uint64
	capacity   uint64
	data       []atomicSample
	writeIndex atomic.Uint64
}

type atomicSample struct {
	t atomic.Uint64 // math.Float64bits(Sample.T)
	v atomic.Uint32 // math.Float32bits(Sample.V)
}

// New creates a ring of the given power-of-two capacity. Panics if capacity
// is not a power of two or is less than 2.
func New(capacity uint32) *Ring {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two >= 2")
	}
	return &Ring{
		mask:     uint64(capacity - 1),
		capacity: uint64(capacity),
		data:     make([]atomicSample, capacity),
	}
}

// Capacity returns the ring's fixed capacity.
func (r *Ring) Capacity() uint32 { return uint32(r.capacity) }

// Len returns the ring's current logical length: min(writes so far, capacity).
func (r *Ring) Len() uint32 {
	end := r.writeIndex.Load()
	if end > r.capacity {
		return uint32(r.capacity)
	}
	return uint32(end)
}

// Push appends one sample. Never fails; overwrites the oldest slot once the
// ring has wrapped.
func (r *Ring) Push(t float64, v float32) {
	idx := r.writeIndex.Add(1) - 1
	slot := &r.data[idx&r.mask]
	slot.t.Store(float64bits(t))
	slot.v.Store(float32bits(v))
}

// Snapshot copies, in write order, every sample with t >= latestTime-windowSeconds.
func (r *Ring) Snapshot(latestTime, windowSeconds float64) []Sample {
	end := r.writeIndex.Load()
	if end == 0 {
		return nil
	}
	start := uint64(0)
	if end > r.capacity {
		start = end - r.capacity
	}
	cutoff := latestTime - windowSeconds
	out := make([]Sample, 0, end-start)
	for i := start; i < end; i++ {
		slot := &r.data[i&r.mask]
		s := Sample{T: float64frombits(slot.t.Load()), V: float32frombits(slot.v.Load())}
		if s.T >= cutoff {
			out = append(out, s)
		}
	}
	return out
}

// SnapshotWithBaseline is like Snapshot but prepends the most recent sample
// strictly before the cutoff, if one exists. If no sample falls inside the
// window but a baseline exists, it returns just the baseline. Used to
// reconstruct step-plot edges for digital signals whose window otherwise
// starts mid-level.
func (r *Ring) SnapshotWithBaseline(latestTime, windowSeconds float64) []Sample {
	end := r.writeIndex.Load()
	if end == 0 {
		return nil
	}
	start := uint64(0)
	if end > r.capacity {
		start = end - r.capacity
	}
	cutoff := latestTime - windowSeconds

	out := make([]Sample, 0, end-start+1)
	var baseline Sample
	haveBaseline := false
	baselineInserted := false
	for i := start; i < end; i++ {
		slot := &r.data[i&r.mask]
		s := Sample{T: float64frombits(slot.t.Load()), V: float32frombits(slot.v.Load())}
		if s.T < cutoff {
			baseline = s
			haveBaseline = true
			continue
		}
		if haveBaseline && len(out) == 0 && !baselineInserted {
			out = append(out, baseline)
			baselineInserted = true
		}
		out = append(out, s)
	}
	if len(out) == 0 && haveBaseline {
		out = append(out, baseline)
	}
	return out
}

// Clear resets the ring to empty. Not concurrent-safe with the writer;
// callable only while acquisition is paused.
func (r *Ring) Clear() {
	r.writeIndex.Store(0)
}
