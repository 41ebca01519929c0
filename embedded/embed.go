// Package embedded содержит встроенные ресурсы приложения.
package embedded

import (
	"embed"
)

// IconActive - иконка, когда hyper-клавиша работает (синяя).
//
//go:embed icon_active.png
var IconActive []byte

// IconSuspended - иконка в сквозном режиме (серая).
//
//go:embed icon_suspended.png
var IconSuspended []byte

// Web - страница настроек: web/index.html и web/static/*.
//
//go:embed web
var Web embed.FS

// IconActiveICO и IconSuspendedICO - те же иконки в формате ICO для трея Windows.
//
//go:embed icon_active.ico
var IconActiveICO []byte

//go:embed icon_suspended.ico
var IconSuspendedICO []byte
