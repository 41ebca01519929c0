// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = RU // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		// App
		"app_name":    "Hyper Key",
		"app_tooltip": "Hyper Key - аккорд Ctrl+Win+Alt+Shift одной клавишей",

		// Tray menu
		"tray_status_active":      "Активна: %s (%s)",
		"tray_status_suspended":   "Приостановлено",
		"tray_enabled":            "Включено",
		"tray_enabled_hint":       "Снимите галочку, чтобы клавиши проходили без изменений",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",
		"tray_pick_key":           "Hyper-клавиша...",
		"tray_pick_key_hint":      "Выбрать клавишу из списка",
		"tray_preferences":        "Настройки...",
		"tray_preferences_hint":   "Открыть страницу настроек в браузере",
		"tray_reload":             "Перечитать конфиг",
		"tray_reload_hint":        "Загрузить настройки из файла",
		"tray_quit":               "Выход",
		"tray_quit_hint":          "Закрыть приложение",

		// Notifications
		"notify_ready":        "Запущено, hyper-клавиша: %s",
		"notify_suspended":    "Приостановлено",
		"notify_resumed":      "Снова включено",
		"notify_reloaded":     "Настройки перечитаны",
		"notify_config_error": "Ошибка в файле настроек",

		// Dialogs
		"dialog_key_title":  "Hyper-клавиша",
		"dialog_key_prompt": "Выберите клавишу:",

		// Errors
		"error_title":           "Hyper Key - ошибка",
		"error_hook":            "Не удалось установить перехват клавиатуры",
		"error_already_running": "Hyper Key уже запущен",
		"error_server":          "Не удалось запустить страницу настроек (порт занят?)",
		"error_hotkey_register": "Не удалось зарегистрировать горячую клавишу",
		"error_browser":         "Не удалось открыть браузер",
		"error_save":            "Не удалось сохранить настройки",
	},

	EN: {
		// App
		"app_name":    "Hyper Key",
		"app_tooltip": "Hyper Key - Ctrl+Win+Alt+Shift on a single key",

		// Tray menu
		"tray_status_active":      "Active: %s (%s)",
		"tray_status_suspended":   "Suspended",
		"tray_enabled":            "Enabled",
		"tray_enabled_hint":       "Uncheck to pass keys through unchanged",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show notifications",
		"tray_pick_key":           "Hyper key...",
		"tray_pick_key_hint":      "Pick a key from the list",
		"tray_preferences":        "Preferences...",
		"tray_preferences_hint":   "Open the settings page in the browser",
		"tray_reload":             "Reload Config",
		"tray_reload_hint":        "Load settings from the file",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Close application",

		// Notifications
		"notify_ready":        "Running, hyper key: %s",
		"notify_suspended":    "Suspended",
		"notify_resumed":      "Enabled again",
		"notify_reloaded":     "Settings reloaded",
		"notify_config_error": "Config file error",

		// Dialogs
		"dialog_key_title":  "Hyper key",
		"dialog_key_prompt": "Choose a key:",

		// Errors
		"error_title":           "Hyper Key - error",
		"error_hook":            "Could not install the keyboard hook",
		"error_already_running": "Hyper Key is already running",
		"error_server":          "Could not start the settings page (port in use?)",
		"error_hotkey_register": "Could not register hotkey",
		"error_browser":         "Could not open the browser",
		"error_save":            "Could not save settings",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation with args.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// SetLanguage sets the current UI language.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Parse maps a locale string ("en_US.UTF-8", "ru", "EN") to a supported language.
func Parse(locale string) (Language, bool) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	for _, lang := range []Language{RU, EN} {
		if strings.HasPrefix(locale, string(lang)) {
			return lang, true
		}
	}
	return "", false
}

// Detect picks the language from HYPERKEY_LANG, then LANG. Defaults to RU.
func Detect() Language {
	for _, env := range []string{"HYPERKEY_LANG", "LANG"} {
		if lang, ok := Parse(os.Getenv(env)); ok {
			return lang
		}
	}
	return RU
}
