// Package tray adapts the control surface to a background system-tray
// menu: enabling/disabling virtual-pad output, reloading the mapping
// table, and a clean exit, with no window or plot widget of its own.
package tray

import (
	"log"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

// Controls is the subset of internal/control.Surface the tray menu drives,
// kept narrow so this package doesn't need to import the pipeline's full
// dependency graph.
type Controls interface {
	SetOutputEnabled(enabled bool) error
	OutputEnabled() bool
}

// ReloadFunc reloads the mapping table from its persisted source.
type ReloadFunc func() error

// ShutdownFunc is called once when "Exit" is clicked.
type ShutdownFunc func()

// Tray manages the system tray icon and menu.
type Tray struct {
	controls     Controls
	reloadFunc   ReloadFunc
	shutdownFunc ShutdownFunc

	once         sync.Once
	shuttingDown atomic.Bool

	menuToggle *systray.MenuItem
	menuReload *systray.MenuItem
	menuExit   *systray.MenuItem
}

// New creates a Tray wired to a control surface, a mapping-reload callback
// and a shutdown callback.
func New(controls Controls, reload ReloadFunc, shutdown ShutdownFunc) *Tray {
	return &Tray{
		controls:     controls,
		reloadFunc:   reload,
		shutdownFunc: shutdown,
	}
}

// Run initializes and runs the system tray; blocks until Quit.
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("hotasd")
	systray.SetTooltip("HOTAS remapping pipeline")

	label := "Disable HOTAS output"
	if !t.controls.OutputEnabled() {
		label = "Enable HOTAS output"
	}
	t.menuToggle = systray.AddMenuItem(label, "Toggle virtual-gamepad output")
	t.menuReload = systray.AddMenuItem("Reload mapping", "Reload the mapping table from disk")
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit hotasd")

	go t.handleMenuClicks()

	log.Println("tray: system tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuToggle.ClickedCh:
			if t.shuttingDown.Load() {
				continue
			}
			t.toggleOutput()
		case <-t.menuReload.ClickedCh:
			if t.shuttingDown.Load() {
				continue
			}
			t.reloadMapping()
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) toggleOutput() {
	enable := !t.controls.OutputEnabled()
	if err := t.controls.SetOutputEnabled(enable); err != nil {
		log.Printf("tray: failed to set output enabled=%v: %v", enable, err)
		return
	}
	if enable {
		t.menuToggle.SetTitle("Disable HOTAS output")
	} else {
		t.menuToggle.SetTitle("Enable HOTAS output")
	}
}

func (t *Tray) reloadMapping() {
	if t.reloadFunc == nil {
		return
	}
	if err := t.reloadFunc(); err != nil {
		log.Printf("tray: reload mapping failed: %v", err)
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	log.Println("tray: system tray exiting")
}
