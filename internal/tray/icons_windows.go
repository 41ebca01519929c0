//go:build windows

package tray

import "hyperkey/embedded"

// Трей Windows загружает иконку как ICO.
var (
	iconActive    = embedded.IconActiveICO
	iconSuspended = embedded.IconSuspendedICO
)
