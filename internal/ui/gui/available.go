//go:build !headless

package gui

// Available reports whether this build carries the tray UI.
func Available() bool {
	return true
}
