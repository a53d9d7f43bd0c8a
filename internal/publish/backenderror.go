package publish

import "fmt"

// vigemErrorNames maps ViGEmClient's VIGEM_ERROR codes to their symbolic
// names, table-driven the same way filtered_forwarder.hpp's format_error
// switches on the enum instead of printing a bare numeric code.
var vigemErrorNames = map[uint32]string{
	0x20000001: "BUS_NOT_FOUND",
	0x20000002: "NO_FREE_SLOT",
	0x20000003: "INVALID_TARGET",
	0x20000004: "REMOVAL_FAILED",
	0x20000005: "ALREADY_CONNECTED",
	0x20000006: "TARGET_UNINITIALIZED",
	0x20000007: "TARGET_NOT_PLUGGED_IN",
	0x20000008: "BUS_VERSION_MISMATCH",
	0x20000009: "BUS_ACCESS_FAILED",
	0x2000000A: "CALLBACK_ALREADY_REGISTERED",
	0x2000000B: "CALLBACK_NOT_FOUND",
	0x2000000C: "BUS_ALREADY_CONNECTED",
	0x2000000D: "BUS_INVALID_HANDLE",
	0x2000000E: "XUSB_INDEX_OUT_OF_RANGE",
	0x2000000F: "INVALID_PARAMETER",
	0x20000010: "NOT_SUPPORTED",
	0x20000011: "WINAPI_ERROR",
	0x20000012: "TIMED_OUT",
	0x20000013: "IS_DISPOSING",
}

// FormatBackendError turns a raw virtual-pad backend return code into the
// symbolic name a caller would recognize, falling back to a hex code for
// anything outside the known table. code 0 (success) formats as the empty
// string so callers can test for it directly.
func FormatBackendError(code uint32) string {
	if code == 0 {
		return ""
	}
	if name, ok := vigemErrorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("ERR_%08X", code)
}
