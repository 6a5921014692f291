//go:build !darwin

package platform

// HideFromDock is a no-op on non-macOS platforms
func HideFromDock() {}
