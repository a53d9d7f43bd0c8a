package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/soar/hotasd/internal/acquire"
	"github.com/soar/hotasd/internal/filter"
	"github.com/soar/hotasd/internal/mapping"
	"github.com/soar/hotasd/internal/publish"
	"github.com/soar/hotasd/internal/signal"
)

type fakeSource struct {
	report []byte
	ts     float64
}

func (f *fakeSource) Enumerate() ([]acquire.DeviceIdentity, error) { return nil, nil }
func (f *fakeSource) Open(path string) (acquire.Handle, error)     { return acquire.Handle(path), nil }
func (f *fakeSource) Close(h acquire.Handle) error                 { return nil }
func (f *fakeSource) ReadLatest(h acquire.Handle) ([]byte, float64, bool) {
	return f.report, f.ts, true
}
func (f *fakeSource) Connected(h acquire.Handle) bool { return true }

type noopPad struct{ updates int }

func (p *noopPad) Connect() error                       { return nil }
func (p *noopPad) Disconnect()                          {}
func (p *noopPad) PlugTarget() error                    { return nil }
func (p *noopPad) UnplugTarget() error                  { return nil }
func (p *noopPad) Update(publish.PadReport) error       { p.updates++; return nil }
func (p *noopPad) Ready() bool                          { return true }
func (p *noopPad) LastError() (string, bool)            { return "", false }

func buildTestPipeline(t *testing.T) (*Pipeline, *fakeSource, *noopPad) {
	ds, err := signal.NewDescriptorSet([]signal.Descriptor{
		{Key: signal.Key{Device: signal.Stick, ID: "joy_x"}, BitStart: 0, BitCount: 8},
	})
	if err != nil {
		t.Fatal(err)
	}
	engine := filter.NewEngine(filter.Params{})
	src := &fakeSource{report: []byte{0xFF}, ts: 0}
	core := acquire.New(ds, engine, src, 8)
	if err := core.OpenDevice(signal.Stick, "/dev/stick0"); err != nil {
		t.Fatal(err)
	}

	table := mapping.NewTable()
	table.Add(mapping.NewEntry("", signal.Key{Device: signal.Stick, ID: "joy_x"},
		mapping.Action{Kind: mapping.ActionAxis, Axis: mapping.AxisLX}, 0, 0.05))
	resolver := mapping.NewResolver(table)

	pad := &noopPad{}
	pub := publish.NewPublisher(pad, nil, nil)
	if err := pub.Enable(); err != nil {
		t.Fatal(err)
	}

	return New(core, resolver, pub, 1000), src, pad
}

func TestRunTicksUntilCanceled(t *testing.T) {
	p, src, pad := buildTestPipeline(t)
	_ = src

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p.Run(ctx)

	if pad.updates == 0 {
		t.Fatal("expected at least one published report")
	}
}

func TestRunSplitDeliversBatchesToPublisher(t *testing.T) {
	p, src, pad := buildTestPipeline(t)
	_ = src

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p.RunSplit(ctx, 4)

	if pad.updates == 0 {
		t.Fatal("expected at least one published report via the split queue")
	}
}

func TestShutdownDisablesPublisher(t *testing.T) {
	p, _, pad := buildTestPipeline(t)
	p.Shutdown()

	if p.publisher.EnableState() != publish.Disabled {
		t.Fatal("expected publisher disabled after shutdown")
	}
	_ = pad
}
