// Package pipeline wires the acquisition core, mapping resolver and
// publisher into the fixed-rate loop described by the component design:
// acquire -> decode -> filter -> ring write -> resolve -> publish, once per
// tick. Run co-locates every stage on one goroutine (the reference
// default); RunSplit moves acquisition to its own goroutine and hands
// filtered values to the publisher goroutine over a bounded SPSC queue,
// for callers that want the two stages on separate OS threads.
package pipeline

import (
	"context"

	"github.com/soar/hotasd/internal/acquire"
	"github.com/soar/hotasd/internal/clock"
	"github.com/soar/hotasd/internal/mapping"
	"github.com/soar/hotasd/internal/publish"
)

// Pipeline owns one tick's worth of acquisition, resolution and
// publication, driven by a shared fixed-rate Scheduler.
type Pipeline struct {
	core      *acquire.Core
	resolver  *mapping.Resolver
	publisher *publish.Publisher
	scheduler *clock.Scheduler
}

// New creates a pipeline over an already-constructed core, resolver and
// publisher, ticking at targetHz.
func New(core *acquire.Core, resolver *mapping.Resolver, publisher *publish.Publisher, targetHz float64) *Pipeline {
	return &Pipeline{
		core:      core,
		resolver:  resolver,
		publisher: publisher,
		scheduler: clock.NewScheduler(targetHz),
	}
}

// Scheduler exposes the pipeline's scheduler so callers can read PollStats.
func (p *Pipeline) Scheduler() *clock.Scheduler { return p.scheduler }

// Run drives the single-thread default: each tick runs acquisition,
// resolution and publication in sequence on the calling goroutine, bounded
// to the target rate by the shared scheduler. Run blocks until ctx is
// canceled, checking the cancellation once per tick so shutdown is bounded
// to at most two tick periods.
func (p *Pipeline) Run(ctx context.Context) {
	p.scheduler.Start()
	for {
		if ctx.Err() != nil {
			return
		}
		workStart := p.scheduler.BeginTick()

		p.core.Tick()
		out := p.resolver.Resolve(p.core)
		p.publisher.Publish(p.core.LatestTime(), out)

		p.scheduler.EndTick(workStart)
		p.scheduler.WaitForDeadline()
	}
}

// filteredBatch is one tick's worth of resolved output handed from the
// acquisition goroutine to the publisher goroutine in RunSplit.
type filteredBatch struct {
	out mapping.Outputs
	t   float64
}

// RunSplit drives the two-thread variant permitted by the concurrency
// model: acquisition (and resolution, since the resolver only reads the
// core's latest values) runs on its own goroutine at the scheduler's rate;
// publication drains a bounded SPSC channel on a second goroutine. The
// channel is sized queueDepth batches deep (>= 2 ticks per the concurrency
// model) and is non-blocking on the producer side: a full queue drops the
// oldest pending batch rather than stalling acquisition, since publishing
// a stale batch is worse than skipping one tick of output.
func (p *Pipeline) RunSplit(ctx context.Context, queueDepth int) {
	if queueDepth < 2 {
		queueDepth = 2
	}
	queue := make(chan filteredBatch, queueDepth)

	go func() {
		p.scheduler.Start()
		for {
			if ctx.Err() != nil {
				close(queue)
				return
			}
			workStart := p.scheduler.BeginTick()

			p.core.Tick()
			out := p.resolver.Resolve(p.core)
			batch := filteredBatch{out: out, t: p.core.LatestTime()}

			select {
			case queue <- batch:
			default:
				// queue full: drop the oldest pending batch, then enqueue
				select {
				case <-queue:
				default:
				}
				select {
				case queue <- batch:
				default:
				}
			}

			p.scheduler.EndTick(workStart)
			p.scheduler.WaitForDeadline()
		}
	}()

	for batch := range queue {
		p.publisher.Publish(batch.t, batch.out)
	}
}

// Shutdown releases pressed keys and neutralizes/disconnects the virtual
// pad, per the shutdown sequence in the concurrency model.
func (p *Pipeline) Shutdown() {
	p.publisher.Disable()
	p.core.CloseAll()
}
