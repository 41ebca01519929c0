//go:build !windows

package tray

import "hyperkey/embedded"

var (
	iconActive    = embedded.IconActive
	iconSuspended = embedded.IconSuspended
)
