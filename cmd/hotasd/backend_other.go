//go:build !windows

package main

import (
	"fmt"

	"github.com/soar/hotasd/internal/publish"
)

// noopPad and noopInput stand in for the Windows-only vigem/sendinput
// backends on other platforms: the pipeline still runs end to end
// (acquisition, filtering, mapping resolution), just without an actual
// virtual gamepad or OS input injection at the end of it.
type noopPad struct{}

func (noopPad) Connect() error                 { return fmt.Errorf("vigem: not available on this platform") }
func (noopPad) Disconnect()                    {}
func (noopPad) PlugTarget() error              { return fmt.Errorf("vigem: not available on this platform") }
func (noopPad) UnplugTarget() error            { return nil }
func (noopPad) Update(publish.PadReport) error { return fmt.Errorf("vigem: not available on this platform") }
func (noopPad) Ready() bool                    { return false }
func (noopPad) LastError() (string, bool)      { return "vigem: not available on this platform", true }

type noopInput struct{}

func (noopInput) Key(vk uint32, down, extended bool, scanCode uint16) error {
	return fmt.Errorf("sendinput: not available on this platform")
}
func (noopInput) Mouse(op string, magnitude float32) error {
	return fmt.Errorf("sendinput: not available on this platform")
}
func (noopInput) QueryKeyRepeat() (initialDelayMs, intervalMs float64) { return 250, 33 }

func padBackend() publish.VirtualPad       { return noopPad{} }
func inputBackend() publish.SyntheticInput { return noopInput{} }
