//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"hyperkey/internal/keys"
)

// modifierMap маппинг keys.Mod -> hotkey.Modifier для macOS
var modifierMap = map[keys.Mod]hotkey.Modifier{
	keys.ModCtrl:  hotkey.ModCtrl,
	keys.ModShift: hotkey.ModShift,
	keys.ModAlt:   hotkey.ModOption,
	keys.ModWin:   hotkey.ModCmd,
}

func rawKey(keys.Code) (hotkey.Key, bool) {
	return 0, false
}
