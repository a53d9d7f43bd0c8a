//go:build windows

// Package vigem implements internal/publish.VirtualPad by dynamically
// loading ViGEmClient.dll through golang.org/x/sys/windows's typed
// LazyDLL/LazyProc, the same lazy-bind idiom internal/console uses via
// raw syscall for its console handler: no import library, no hard build
// dependency — if the DLL is missing at runtime the pad simply reports
// itself unready instead of failing to build or start.
package vigem

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soar/hotasd/internal/publish"
)

// xusbReport mirrors ViGEm's XUSB_REPORT layout exactly: it is passed by
// pointer straight into vigem_target_x360_update, so field order and width
// must match byte-for-byte.
type xusbReport struct {
	wButtons      uint16
	bLeftTrigger  uint8
	bRightTrigger uint8
	sThumbLX      int16
	sThumbLY      int16
	sThumbRX      int16
	sThumbRY      int16
}

// Pad is a VirtualPad backed by ViGEmClient.dll, loaded on first Connect.
type Pad struct {
	mu sync.Mutex

	lib       *windows.LazyDLL
	procAlloc *windows.LazyProc
	procConn  *windows.LazyProc
	procFree  *windows.LazyProc
	procX360Alloc  *windows.LazyProc
	procTargetAdd  *windows.LazyProc
	procTargetDel  *windows.LazyProc
	procTargetFree *windows.LazyProc
	procX360Update *windows.LazyProc

	client  uintptr
	target  uintptr
	added   bool
	lastErr error
}

// New creates an unconnected Pad. Connect performs the actual DLL load.
func New() *Pad {
	return &Pad{}
}

// Connect loads ViGEmClient.dll and resolves the symbols this adapter
// needs, grounded on original_source/src/xinput/vigem_dynamic.cpp's ensure()
// sequence: alloc -> connect, deferring target creation to PlugTarget.
func (p *Pad) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lib = windows.NewLazyDLL("ViGEmClient.dll")
	if err := p.lib.Load(); err != nil {
		p.lastErr = fmt.Errorf("vigem: ViGEmClient.dll not found: %w", err)
		return p.lastErr
	}

	p.procAlloc = p.lib.NewProc("vigem_alloc")
	p.procConn = p.lib.NewProc("vigem_connect")
	p.procFree = p.lib.NewProc("vigem_free")
	p.procX360Alloc = p.lib.NewProc("vigem_target_x360_alloc")
	p.procTargetAdd = p.lib.NewProc("vigem_target_add")
	p.procTargetDel = p.lib.NewProc("vigem_target_remove")
	p.procTargetFree = p.lib.NewProc("vigem_target_free")
	p.procX360Update = p.lib.NewProc("vigem_target_x360_update")

	client, _, _ := p.procAlloc.Call()
	if client == 0 {
		p.lastErr = fmt.Errorf("vigem: alloc failed")
		return p.lastErr
	}
	ret, _, _ := p.procConn.Call(client)
	if ret != 0 {
		p.lastErr = fmt.Errorf("vigem: connect failed: %s", publish.FormatBackendError(uint32(ret)))
		return p.lastErr
	}
	p.client = client
	p.lastErr = nil
	return nil
}

// Disconnect tears down the target (if added) and releases the client.
func (p *Pad) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unplugLocked()
	if p.client != 0 && p.procFree != nil {
		p.procFree.Call(p.client)
	}
	p.client = 0
}

// PlugTarget allocates and adds an X360 target to the bus.
func (p *Pad) PlugTarget() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == 0 {
		p.lastErr = fmt.Errorf("vigem: not connected")
		return p.lastErr
	}
	target, _, _ := p.procX360Alloc.Call()
	if target == 0 {
		p.lastErr = fmt.Errorf("vigem: target alloc failed")
		return p.lastErr
	}
	ret, _, _ := p.procTargetAdd.Call(p.client, target)
	if ret != 0 {
		p.lastErr = fmt.Errorf("vigem: target add failed: %s", publish.FormatBackendError(uint32(ret)))
		return p.lastErr
	}
	p.target = target
	p.added = true
	p.lastErr = nil
	return nil
}

// UnplugTarget removes and frees the X360 target.
func (p *Pad) UnplugTarget() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unplugLocked()
	return nil
}

func (p *Pad) unplugLocked() {
	if p.target == 0 {
		return
	}
	if p.client != 0 && p.added && p.procTargetDel != nil {
		p.procTargetDel.Call(p.client, p.target)
	}
	if p.procTargetFree != nil {
		p.procTargetFree.Call(p.target)
	}
	p.target = 0
	p.added = false
}

// Update pushes one PadReport to the target via vigem_target_x360_update.
func (p *Pad) Update(rep publish.PadReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == 0 || p.target == 0 || !p.added {
		return fmt.Errorf("vigem: target not ready")
	}
	wire := xusbReport{
		wButtons:      rep.Buttons,
		bLeftTrigger:  rep.LT,
		bRightTrigger: rep.RT,
		sThumbLX:      rep.LX,
		sThumbLY:      rep.LY,
		sThumbRX:      rep.RX,
		sThumbRY:      rep.RY,
	}
	ret, _, _ := p.procX360Update.Call(p.client, p.target, uintptr(unsafe.Pointer(&wire)))
	if ret != 0 {
		p.lastErr = fmt.Errorf("vigem: update failed: %s", publish.FormatBackendError(uint32(ret)))
		return p.lastErr
	}
	p.lastErr = nil
	return nil
}

// Ready reports whether a target is currently added to the bus.
func (p *Pad) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client != 0 && p.target != 0 && p.added
}

// LastError returns the most recent backend error, if any.
func (p *Pad) LastError() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastErr == nil {
		return "", false
	}
	return p.lastErr.Error(), true
}
