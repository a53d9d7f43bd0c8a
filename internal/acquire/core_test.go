package acquire

import (
	"testing"

	"github.com/soar/hotasd/internal/filter"
	"github.com/soar/hotasd/internal/signal"
)

type fakeSource struct {
	reports map[Handle][]byte
	ts      map[Handle]float64
	ok      map[Handle]bool
	opened  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		reports: make(map[Handle][]byte),
		ts:      make(map[Handle]float64),
		ok:      make(map[Handle]bool),
	}
}

func (f *fakeSource) Enumerate() ([]DeviceIdentity, error) { return nil, nil }

func (f *fakeSource) Open(path string) (Handle, error) {
	f.opened++
	h := Handle(path)
	f.ok[h] = true
	return h, nil
}

func (f *fakeSource) Close(h Handle) error { return nil }

func (f *fakeSource) ReadLatest(h Handle) ([]byte, float64, bool) {
	return f.reports[h], f.ts[h], f.ok[h]
}

func (f *fakeSource) Connected(h Handle) bool { return true }

func TestTickDecodesAndFiltersAndWritesRing(t *testing.T) {
	ds, err := signal.NewDescriptorSet([]signal.Descriptor{
		{Key: signal.Key{Device: signal.Stick, ID: "joy_x"}, BitStart: 0, BitCount: 8},
	})
	if err != nil {
		t.Fatal(err)
	}
	engine := filter.NewEngine(filter.Params{})
	src := newFakeSource()
	core := New(ds, engine, src, 8)

	if err := core.OpenDevice(signal.Stick, "/dev/stick0"); err != nil {
		t.Fatal(err)
	}
	h := Handle("/dev/stick0")
	src.reports[h] = []byte{0xFF}
	src.ts[h] = 0

	core.Tick()

	v, ok := core.Value(signal.Key{Device: signal.Stick, ID: "joy_x"})
	if !ok {
		t.Fatal("expected a value after tick")
	}
	if v != 1.0 {
		t.Fatalf("expected normalized 1.0, got %v", v)
	}

	r := core.Ring(signal.Key{Device: signal.Stick, ID: "joy_x"})
	if r == nil || r.Len() != 1 {
		t.Fatalf("expected one sample in ring, got %+v", r)
	}
}

func TestTickSkipsStaleReport(t *testing.T) {
	ds, _ := signal.NewDescriptorSet([]signal.Descriptor{
		{Key: signal.Key{Device: signal.Stick, ID: "joy_x"}, BitStart: 0, BitCount: 8},
	})
	engine := filter.NewEngine(filter.Params{})
	src := newFakeSource()
	core := New(ds, engine, src, 8)
	core.OpenDevice(signal.Stick, "/dev/stick0")
	h := Handle("/dev/stick0")
	src.reports[h] = []byte{0xFF}
	src.ts[h] = -10 // far in the past relative to the core's clock

	core.Tick()

	if _, ok := core.Value(signal.Key{Device: signal.Stick, ID: "joy_x"}); ok {
		t.Fatal("expected no value for a stale report")
	}
}

type sinkSpy struct {
	calls int
}

func (s *sinkSpy) Process(t float64, values map[signal.Key]float32) { s.calls++ }

func TestSinkCalledOnSuccessfulTick(t *testing.T) {
	ds, _ := signal.NewDescriptorSet([]signal.Descriptor{
		{Key: signal.Key{Device: signal.Stick, ID: "joy_x"}, BitStart: 0, BitCount: 8},
	})
	engine := filter.NewEngine(filter.Params{})
	src := newFakeSource()
	core := New(ds, engine, src, 8)
	core.OpenDevice(signal.Stick, "/dev/stick0")
	h := Handle("/dev/stick0")
	src.reports[h] = []byte{0xFF}
	src.ts[h] = 0

	spy := &sinkSpy{}
	core.SetSink(spy)
	core.Tick()

	if spy.calls != 1 {
		t.Fatalf("expected sink called once, got %d", spy.calls)
	}
}
