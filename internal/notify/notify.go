// Package notify предоставляет системные уведомления.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"hyperkey/internal/i18n"
)

const maxMessageLen = 100

// send подменяется в тестах.
var send = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled atomic.Bool
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	n := &Notifier{}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Enabled возвращает текущее состояние.
func (n *Notifier) Enabled() bool {
	return n.enabled.Load()
}

// Ready показывает уведомление о запуске.
func (n *Notifier) Ready(key string) {
	n.notify("", i18n.Tf("notify_ready", key))
}

// Suspended сообщает о переходе в сквозной режим.
func (n *Notifier) Suspended() {
	n.notify("", i18n.T("notify_suspended"))
}

// Resumed сообщает о выходе из сквозного режима.
func (n *Notifier) Resumed() {
	n.notify("", i18n.T("notify_resumed"))
}

// Reloaded сообщает, что настройки перечитаны.
func (n *Notifier) Reloaded() {
	n.notify("", i18n.T("notify_reloaded"))
}

// ConfigError показывает ошибку в файле настроек.
func (n *Notifier) ConfigError(msg string) {
	n.notify(i18n.T("notify_config_error"), msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	if r := []rune(message); len(r) > maxMessageLen {
		message = string(r[:maxMessageLen]) + "..."
	}
	appName := i18n.T("app_name")
	if title != "" {
		title = appName + ": " + title
	} else {
		title = appName
	}
	// Игнорируем ошибки уведомлений - они не критичны
	_ = send(title, message)
}
