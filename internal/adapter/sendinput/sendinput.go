//go:build windows

// Package sendinput implements internal/publish.SyntheticInput by calling
// user32.dll!SendInput directly, loaded through golang.org/x/sys/windows's
// typed LazyDLL the same way internal/adapter/vigem binds ViGEmClient.dll,
// and reading the host's keyboard repeat timing via SystemParametersInfoW
// (SPI_GETKEYBOARDDELAY/SPI_GETKEYBOARDSPEED) instead of hardcoding it.
package sendinput

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                    = windows.NewLazySystemDLL("user32.dll")
	procSendInput             = user32.NewProc("SendInput")
	procSystemParametersInfoW = user32.NewProc("SystemParametersInfoW")
)

const (
	inputKeyboard uint32 = 1
	inputMouse    uint32 = 0

	keyEventFKeyUp     uint32 = 0x0002
	keyEventFExtendedKey uint32 = 0x0001
	keyEventFScanCode  uint32 = 0x0008

	mouseEventFLeftDown  uint32 = 0x0002
	mouseEventFLeftUp    uint32 = 0x0004
	mouseEventFRightDown uint32 = 0x0008
	mouseEventFRightUp   uint32 = 0x0010
	mouseEventFWheel     uint32 = 0x0800
	mouseEventFMove      uint32 = 0x0001

	spiGetKeyboardSpeed uint32 = 0x000A
	spiGetKeyboardDelay uint32 = 0x0016
)

// keybdInput mirrors Win32's KEYBDINPUT.
type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// mouseInput mirrors Win32's MOUSEINPUT.
type mouseInput struct {
	dx          int32
	dy          int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input mirrors Win32's tagged INPUT union: a DWORD type tag, padded to an
// 8-byte boundary (the union's dwExtraInfo field needs pointer alignment),
// followed by a payload sized to the larger of MOUSEINPUT/KEYBDINPUT.
type input struct {
	kind    uint32
	_       uint32
	payload [unsafe.Sizeof(mouseInput{})]byte
}

func newKeyboardInput(vk uint16, scan uint16, flags uint32) input {
	var in input
	in.kind = inputKeyboard
	kb := (*keybdInput)(unsafe.Pointer(&in.payload[0]))
	kb.wVk = vk
	kb.wScan = scan
	kb.dwFlags = flags
	return in
}

func newMouseInput(dx, dy int32, data uint32, flags uint32) input {
	var in input
	in.kind = inputMouse
	m := (*mouseInput)(unsafe.Pointer(&in.payload[0]))
	m.dx = dx
	m.dy = dy
	m.mouseData = data
	m.dwFlags = flags
	return in
}

func sendInputs(inputs []input) error {
	if len(inputs) == 0 {
		return nil
	}
	ret, _, _ := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(ret) != len(inputs) {
		return fmt.Errorf("sendinput: SendInput injected %d/%d events", ret, len(inputs))
	}
	return nil
}

// Input is a SyntheticInput backed by SendInput.
type Input struct{}

// New creates a SendInput-backed SyntheticInput.
func New() *Input { return &Input{} }

// Key injects one keyboard event. Extended keys (arrows, navigation
// cluster, etc.) carry KEYEVENTF_EXTENDEDKEY per Win32 convention.
func (Input) Key(vk uint32, down, extended bool, scanCode uint16) error {
	flags := keyEventFScanCode
	if !down {
		flags |= keyEventFKeyUp
	}
	if extended {
		flags |= keyEventFExtendedKey
	}
	scan := scanCode
	if scan == 0 {
		scan = uint16(vk)
	}
	in := newKeyboardInput(uint16(vk), scan, flags)
	return sendInputs([]input{in})
}

// Mouse dispatches an opaque mouse-op token. The op catalogue is external
// to the core; this adapter recognizes the handful of tokens a typical
// mapping config would target and treats magnitude as a relative
// move/scroll delta for motion ops.
func (Input) Mouse(op string, magnitude float32) error {
	switch op {
	case "mouse:left_click":
		return sendInputs([]input{
			newMouseInput(0, 0, 0, mouseEventFLeftDown),
			newMouseInput(0, 0, 0, mouseEventFLeftUp),
		})
	case "mouse:right_click":
		return sendInputs([]input{
			newMouseInput(0, 0, 0, mouseEventFRightDown),
			newMouseInput(0, 0, 0, mouseEventFRightUp),
		})
	case "mouse:move_x":
		return sendInputs([]input{newMouseInput(int32(magnitude), 0, 0, mouseEventFMove)})
	case "mouse:move_y":
		return sendInputs([]input{newMouseInput(0, int32(magnitude), 0, mouseEventFMove)})
	case "mouse:wheel":
		return sendInputs([]input{newMouseInput(0, 0, uint32(int32(magnitude)), mouseEventFWheel)})
	default:
		return fmt.Errorf("sendinput: unrecognized mouse op %q", op)
	}
}

// QueryKeyRepeat reads the host's keyboard repeat timing via
// SystemParametersInfoW instead of hardcoding 250ms/33ms.
func (Input) QueryKeyRepeat() (initialDelayMs, intervalMs float64) {
	var delayIdx, speedIdx uint32
	procSystemParametersInfoW.Call(uintptr(spiGetKeyboardDelay), 0, uintptr(unsafe.Pointer(&delayIdx)), 0)
	procSystemParametersInfoW.Call(uintptr(spiGetKeyboardSpeed), 0, uintptr(unsafe.Pointer(&speedIdx)), 0)

	// SPI_GETKEYBOARDDELAY returns 0-3, each step ~250ms, offset by one step.
	initialDelayMs = float64(delayIdx+1) * 250
	// SPI_GETKEYBOARDSPEED returns 0-31; 0 ~= 2.5 repeats/sec, 31 ~= 30 repeats/sec.
	repeatsPerSec := 2.5 + (float64(speedIdx)/31.0)*27.5
	intervalMs = 1000.0 / repeatsPerSec
	return initialDelayMs, intervalMs
}
