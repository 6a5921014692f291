//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>

int
SetAccessoryActivationPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
    return 0;
}
*/
import "C"

// HideFromDock keeps the app out of the Dock and the app switcher so it
// lives in the menu bar only (macOS only)
func HideFromDock() {
	C.SetAccessoryActivationPolicy()
}
