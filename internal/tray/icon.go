package tray

// GetIcon returns the tray icon bytes, or nil to let systray fall back to
// the OS default. No icon asset ships with this package; a deployment can
// supply one by embedding its own []byte and passing it to Run.
func GetIcon() []byte {
	return nil
}
