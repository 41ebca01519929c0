// Package tray предоставляет системный трей с меню.
package tray

import (
	"sync/atomic"

	"github.com/getlantern/systray"

	"hyperkey/internal/i18n"
)

// Status - то, что показывает трей.
type Status struct {
	Key       string
	Mode      string
	Suspended bool
}

// Title возвращает строку статуса для меню и подсказки.
func (s Status) Title() string {
	if s.Suspended {
		return i18n.T("tray_status_suspended")
	}
	return i18n.Tf("tray_status_active", s.Key, s.Mode)
}

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	OnEnabledToggle       func(enabled bool)
	OnNotificationsToggle func() bool
	OnPickKey             func()
	OnPreferences         func()
	OnReload              func()
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks Callbacks
	notify    bool
	ready     atomic.Bool

	status      *systray.MenuItem
	enabled     *systray.MenuItem
	notifyOn    *systray.MenuItem
	pickKey     *systray.MenuItem
	preferences *systray.MenuItem
	reload      *systray.MenuItem
	quitBtn     *systray.MenuItem
}

// New создаёт новый Tray. notify - начальное состояние галочки уведомлений.
func New(callbacks Callbacks, notify bool) *Tray {
	return &Tray{
		callbacks: callbacks,
		notify:    notify,
	}
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconActive)
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	// Статус
	t.status = systray.AddMenuItem(i18n.T("app_name"), "")
	t.status.Disable()

	systray.AddSeparator()

	// Включено / приостановлено
	t.enabled = systray.AddMenuItemCheckbox(i18n.T("tray_enabled"), i18n.T("tray_enabled_hint"), true)

	// Уведомления
	t.notifyOn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.notify)

	systray.AddSeparator()

	// Настройки
	t.pickKey = systray.AddMenuItem(i18n.T("tray_pick_key"), i18n.T("tray_pick_key_hint"))
	t.preferences = systray.AddMenuItem(i18n.T("tray_preferences"), i18n.T("tray_preferences_hint"))
	t.reload = systray.AddMenuItem(i18n.T("tray_reload"), i18n.T("tray_reload_hint"))

	systray.AddSeparator()

	// Выход
	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	t.ready.Store(true)

	// Обработка событий меню
	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.enabled.ClickedCh:
			// Галочка переключается через SetStatus после применения
			if t.callbacks.OnEnabledToggle != nil {
				t.callbacks.OnEnabledToggle(!t.enabled.Checked())
			}

		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				t.setChecked(t.notifyOn, t.callbacks.OnNotificationsToggle())
			}

		case <-t.pickKey.ClickedCh:
			if t.callbacks.OnPickKey != nil {
				t.callbacks.OnPickKey()
			}

		case <-t.preferences.ClickedCh:
			if t.callbacks.OnPreferences != nil {
				t.callbacks.OnPreferences()
			}

		case <-t.reload.ClickedCh:
			if t.callbacks.OnReload != nil {
				t.callbacks.OnReload()
			}

		// Выход
		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

// SetStatus обновляет иконку, строку статуса и галочку "Включено".
// До готовности трея вызов игнорируется.
func (t *Tray) SetStatus(s Status) {
	if !t.ready.Load() {
		return
	}
	if s.Suspended {
		systray.SetIcon(iconSuspended)
	} else {
		systray.SetIcon(iconActive)
	}
	systray.SetTooltip(i18n.T("app_name") + " - " + s.Title())
	t.status.SetTitle(s.Title())
	t.setChecked(t.enabled, !s.Suspended)
}

// SetNotifications синхронизирует галочку уведомлений с конфигом.
func (t *Tray) SetNotifications(on bool) {
	if t.ready.Load() {
		t.setChecked(t.notifyOn, on)
	}
}

func (t *Tray) setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func (t *Tray) onExit() {
	// Cleanup при выходе
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}
