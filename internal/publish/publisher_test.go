package publish

import (
	"errors"
	"testing"

	"github.com/soar/hotasd/internal/mapping"
)

type fakePad struct {
	connected   bool
	plugged     bool
	ready       bool
	lastReport  PadReport
	updateErr   error
	updateCalls int
	connectErr  error
	plugErr     error
}

func (f *fakePad) Connect() error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakePad) Disconnect() { f.connected = false }

func (f *fakePad) PlugTarget() error {
	if f.plugErr != nil {
		return f.plugErr
	}
	f.plugged = true
	f.ready = true
	return nil
}

func (f *fakePad) UnplugTarget() error {
	f.plugged = false
	f.ready = false
	return nil
}

func (f *fakePad) Update(r PadReport) error {
	f.updateCalls++
	f.lastReport = r
	return f.updateErr
}

func (f *fakePad) Ready() bool { return f.ready }

func (f *fakePad) LastError() (string, bool) {
	if f.updateErr != nil {
		return f.updateErr.Error(), true
	}
	return "", false
}

type fakeInput struct {
	events   []keyEvent
	initial  float64
	interval float64
}

func (f *fakeInput) Key(vk uint32, down, extended bool, scanCode uint16) error {
	f.events = append(f.events, keyEvent{vk: vk, down: down})
	return nil
}

func (f *fakeInput) Mouse(op string, magnitude float32) error { return nil }

func (f *fakeInput) QueryKeyRepeat() (float64, float64) { return f.initial, f.interval }

func TestPublisherYInversionS7(t *testing.T) {
	pad := &fakePad{ready: true}
	pub := NewPublisher(pad, nil, nil)
	pub.mu.Lock()
	pub.enableState = Enabled
	pub.mu.Unlock()

	out := mapping.Outputs{Axes: map[mapping.AxisID]float32{mapping.AxisLY: 1}}
	pub.Publish(0, out)

	if pad.lastReport.LY != -32768 {
		t.Fatalf("expected ly=-32768 for logical ly=+1, got %d", pad.lastReport.LY)
	}
}

func TestPublisherKeyAutoRepeatS8(t *testing.T) {
	pad := &fakePad{ready: true}
	input := &fakeInput{initial: 250, interval: 33}
	pub := NewPublisher(pad, input, nil)
	pub.keyRepeater.setTiming(250, 33)

	const vk = 0x20 // VK_SPACE
	times := []float64{1.000, 1.100, 1.200, 1.250, 1.283, 1.316, 1.349, 1.382}
	for _, tm := range times {
		pub.Publish(tm, mapping.Outputs{Keys: map[uint32]bool{vk: true}})
	}
	pub.Publish(1.400, mapping.Outputs{Keys: map[uint32]bool{}})

	wantDownAt := map[float64]bool{1.000: true, 1.250: true, 1.283: true, 1.316: true, 1.349: true, 1.382: true}
	var downs, ups int
	for _, ev := range input.events {
		if ev.down {
			downs++
		} else {
			ups++
		}
	}
	if downs != len(wantDownAt) {
		t.Fatalf("expected %d key-downs, got %d", len(wantDownAt), downs)
	}
	if ups != 1 {
		t.Fatalf("expected exactly one key-up, got %d", ups)
	}
	last := input.events[len(input.events)-1]
	if last.down {
		t.Fatalf("expected final event to be key-up")
	}
}

func TestEnableFailsAndCapturesStatus(t *testing.T) {
	pad := &fakePad{plugErr: errors.New("no free slot")}
	pub := NewPublisher(pad, nil, nil)

	if err := pub.Enable(); err == nil {
		t.Fatal("expected Enable to fail")
	}
	if pub.EnableState() != Disabled {
		t.Fatalf("expected Disabled after failed enable, got %v", pub.EnableState())
	}
	if pub.LastStatus() == "" {
		t.Fatal("expected LastStatus to capture the error")
	}
}

func TestEnableSucceedsAndRePlugs(t *testing.T) {
	pad := &fakePad{}
	pub := NewPublisher(pad, nil, nil)

	if err := pub.Enable(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.EnableState() != Enabled {
		t.Fatalf("expected Enabled, got %v", pub.EnableState())
	}
	if !pad.plugged {
		t.Fatal("expected target to be plugged")
	}
	if pad.updateCalls != 1 {
		t.Fatalf("expected one neutral report on enable, got %d", pad.updateCalls)
	}
}

func TestDisableReleasesKeysAndUnplugs(t *testing.T) {
	pad := &fakePad{ready: true}
	input := &fakeInput{initial: 250, interval: 33}
	pub := NewPublisher(pad, input, nil)
	pub.mu.Lock()
	pub.enableState = Enabled
	pad.plugged = true
	pub.mu.Unlock()

	const vk = 0x20
	pub.Publish(0, mapping.Outputs{Keys: map[uint32]bool{vk: true}})

	pub.Disable()

	if pub.EnableState() != Disabled {
		t.Fatalf("expected Disabled, got %v", pub.EnableState())
	}
	if pad.plugged {
		t.Fatal("expected target to be unplugged")
	}
	found := false
	for _, ev := range input.events {
		if ev.vk == vk && !ev.down {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a key-up for the previously pressed key on disable")
	}
}

func TestInjectTestPulseOverridesOneTick(t *testing.T) {
	pad := &fakePad{ready: true}
	pub := NewPublisher(pad, nil, nil)
	pub.mu.Lock()
	pub.enableState = Enabled
	pub.mu.Unlock()

	pub.InjectTestPulse()
	pub.Publish(0, mapping.Outputs{})

	if pad.lastReport.Buttons == 0 {
		t.Fatal("expected test pulse to set button bits")
	}

	pub.Publish(1, mapping.Outputs{})
	if pad.lastReport.Buttons != 0 {
		t.Fatal("expected test pulse to be one-shot")
	}
}

func TestUpdateErrorCapturedWithoutTearingDown(t *testing.T) {
	pad := &fakePad{ready: true, updateErr: errors.New("backend busy")}
	pub := NewPublisher(pad, nil, nil)
	pub.mu.Lock()
	pub.enableState = Enabled
	pub.mu.Unlock()

	pub.Publish(0, mapping.Outputs{})

	if pub.LastStatus() == "" {
		t.Fatal("expected LastStatus to capture the update error")
	}
	if pub.EnableState() != Enabled {
		t.Fatal("transient update error must not disable the publisher")
	}
}
