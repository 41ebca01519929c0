//go:build windows

package hotkey

import (
	"golang.design/x/hotkey"

	"hyperkey/internal/keys"
)

// modifierMap маппинг keys.Mod -> hotkey.Modifier для Windows
var modifierMap = map[keys.Mod]hotkey.Modifier{
	keys.ModCtrl:  hotkey.ModCtrl,
	keys.ModShift: hotkey.ModShift,
	keys.ModAlt:   hotkey.ModAlt,
	keys.ModWin:   hotkey.ModWin,
}

// rawKey: на Windows hotkey.Key и есть виртуальный код.
func rawKey(c keys.Code) (hotkey.Key, bool) {
	return hotkey.Key(c), true
}
