//go:build linux

package hotkey

import (
	"golang.design/x/hotkey"

	"hyperkey/internal/keys"
)

// modifierMap маппинг keys.Mod -> hotkey.Modifier для Linux
var modifierMap = map[keys.Mod]hotkey.Modifier{
	keys.ModCtrl:  hotkey.ModCtrl,
	keys.ModShift: hotkey.ModShift,
	keys.ModAlt:   hotkey.Mod1, // Alt = Mod1 на X11
	keys.ModWin:   hotkey.Mod4, // Super/Win = Mod4 на X11
}

func rawKey(keys.Code) (hotkey.Key, bool) {
	return 0, false
}
