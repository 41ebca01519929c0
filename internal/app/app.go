// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"hyperkey/internal/config"
	"hyperkey/internal/dialog"
	"hyperkey/internal/hook"
	"hyperkey/internal/hotkey"
	"hyperkey/internal/hyper"
	"hyperkey/internal/i18n"
	"hyperkey/internal/input"
	"hyperkey/internal/keys"
	"hyperkey/internal/notify"
	"hyperkey/internal/server"
	"hyperkey/internal/tray"
)

var (
	// ErrHook - не удалось установить перехват клавиатуры.
	ErrHook = errors.New("перехват клавиатуры")
	// ErrServer - не удалось запустить страницу настроек.
	ErrServer = errors.New("страница настроек")
)

// interceptor - перехват клавиатуры ОС (hook.Hook).
type interceptor interface {
	Start() error
	Stop()
}

// Options - параметры запуска из командной строки.
type Options struct {
	ConfigPath string
	Addr       string
	Debug      bool
}

// App представляет главное приложение.
type App struct {
	mu        sync.Mutex
	store     *config.Store
	machine   *hyper.Machine
	adapter   *hook.Adapter
	hook      interceptor
	server    *server.Server
	notifier  *notify.Notifier
	tray      *tray.Tray
	hotkey    *hotkey.Handler
	applied   config.Snapshot // последний применённый снимок
	loadErr   error
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New создаёт новое приложение.
func New(opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	store := config.NewStore(path)

	// Битый файл не мешает запуску: работаем на значениях по умолчанию
	loadErr := store.Load()
	if loadErr != nil {
		log.Printf("Предупреждение: %v", loadErr)
	}
	snap := store.Current()

	sender, err := input.NewSender()
	if err != nil {
		return nil, err
	}

	machine := hyper.New()
	adapter := hook.NewAdapter(machine, input.NewEmitter(sender), store)
	adapter.SetDebug(opts.Debug)

	app := &App{
		store:    store,
		machine:  machine,
		adapter:  adapter,
		hook:     hook.New(adapter),
		server:   server.New(opts.Addr, store),
		notifier: notify.New(snap.Notifications),
		applied:  snap,
		loadErr:  loadErr,
	}

	app.hotkey = hotkey.New(app.toggleSuspend)
	store.OnChange(app.onConfigChange)

	// Создаём системный трей с обработчиками
	app.tray = tray.New(tray.Callbacks{
		OnEnabledToggle: func(enabled bool) {
			app.setSuspended(!enabled)
		},
		OnNotificationsToggle: func() bool {
			enabled, err := app.store.ToggleNotifications()
			if err != nil {
				log.Printf("Ошибка сохранения настроек: %v", err)
			}
			return enabled
		},
		OnPickKey:     func() { go app.pickKey() },
		OnPreferences: app.openPreferences,
		OnReload:      app.reload,
		OnQuit:        app.Close,
	}, snap.Notifications)

	return app, nil
}

// Start устанавливает хук, поднимает страницу настроек и наблюдение за файлом.
// Ошибки оборачивают ErrHook или ErrServer.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.hook.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrHook, err)
	}
	if err := a.server.Start(ctx); err != nil {
		a.hook.Stop()
		cancel()
		return fmt.Errorf("%w: %w", ErrServer, err)
	}

	go func() {
		err := a.store.Watch(ctx, func(err error) {
			a.notifier.ConfigError(err.Error())
		})
		if err != nil {
			log.Printf("Наблюдение за файлом настроек не запущено: %v", err)
		}
	}()
	return nil
}

// Run запускает трей. Блокирующая функция, возвращается после выхода.
func (a *App) Run() {
	a.tray.Run(func() {
		snap := a.store.Current()

		// Регистрируем горячую клавишу после инициализации трея
		a.registerSuspendHotkey(snap.SuspendHotkey)
		a.refreshTray()

		if a.loadErr != nil {
			a.notifier.ConfigError(a.loadErr.Error())
		}
		a.notifier.Ready(snap.HyperKeyCode.String())
	})
}

// onConfigChange вызывается хранилищем после каждой смены снимка.
func (a *App) onConfigChange(snap config.Snapshot) {
	a.mu.Lock()
	prev := a.applied
	a.applied = snap
	a.mu.Unlock()

	// Сессия, начатая со старой клавишей или аккордом, не должна пережить смену
	if prev.Engine() != snap.Engine() {
		a.adapter.ResetSession()
		log.Printf("Настройки применены: режим %s, клавиша %s, аккорд %s",
			snap.Mode, snap.HyperKeyCode, chordName(snap.UseAlternateChord))
	}
	if prev.SuspendHotkey != snap.SuspendHotkey {
		a.registerSuspendHotkey(snap.SuspendHotkey)
	}

	a.notifier.SetEnabled(snap.Notifications)
	a.tray.SetNotifications(snap.Notifications)
	a.server.Publish(snap)
	a.refreshTray()
}

func (a *App) registerSuspendHotkey(raw string) {
	if raw == "" {
		a.hotkey.Unregister()
		return
	}
	b, err := keys.ParseBinding(raw)
	if err != nil {
		// Validate уже проверил строку, сюда попадать не должны
		log.Printf("Сочетание приостановки не разобрано: %v", err)
		return
	}
	if err := a.hotkey.Register(b); err != nil {
		log.Printf("Ошибка регистрации горячей клавиши: %v", err)
		a.notifier.ConfigError(i18n.T("error_hotkey_register") + ": " + b.String())
	}
}

func (a *App) toggleSuspend() {
	a.setSuspended(!a.adapter.Suspended())
}

func (a *App) setSuspended(on bool) {
	if a.adapter.Suspended() == on {
		a.refreshTray()
		return
	}
	a.adapter.SetSuspended(on)
	if on {
		log.Println("Приостановлено: клавиши проходят без изменений")
		a.notifier.Suspended()
	} else {
		log.Println("Снова включено")
		a.notifier.Resumed()
	}
	a.refreshTray()
}

func (a *App) refreshTray() {
	snap := a.store.Current()
	a.tray.SetStatus(tray.Status{
		Key:       snap.HyperKeyCode.String(),
		Mode:      snap.Mode.String(),
		Suspended: a.adapter.Suspended(),
	})
}

func (a *App) reload() {
	if err := a.store.Reload(); err != nil {
		log.Printf("Ошибка перечитывания настроек: %v", err)
		a.notifier.ConfigError(err.Error())
		return
	}
	log.Println("Настройки перечитаны из файла")
	a.notifier.Reloaded()
}

func (a *App) pickKey() {
	snap := a.store.Current()
	code, err := dialog.SelectHyperKey(snap.HyperKeyCode)
	if err != nil {
		if !errors.Is(err, dialog.ErrCanceled) {
			log.Printf("Ошибка выбора клавиши: %v", err)
		}
		return
	}
	snap.HyperKeyCode = code
	if err := a.store.Update(snap); err != nil {
		log.Printf("Ошибка сохранения настроек: %v", err)
		dialog.ShowError(i18n.T("error_title"), i18n.T("error_save")+": "+err.Error())
	}
}

func (a *App) openPreferences() {
	url := a.server.URL()
	if err := openBrowser(url); err != nil {
		log.Printf("Ошибка открытия браузера: %v", err)
		dialog.ShowInfo(i18n.T("app_name"), i18n.T("error_browser")+": "+url)
	}
}

// Close освобождает ресурсы приложения. Повторный вызов безопасен.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.hotkey.Unregister()
		a.hook.Stop()
		if err := a.server.Stop(); err != nil {
			log.Printf("Ошибка остановки сервера: %v", err)
		}
		// Хук снят, но аккорд мог остаться нажатым
		a.adapter.ResetSession()
		log.Println("Приложение остановлено")
	})
}

// Quit закрывает приложение и трей; Run после этого возвращается.
func (a *App) Quit() {
	a.Close()
	a.tray.Quit()
}

func chordName(alternate bool) string {
	if alternate {
		return "Meh"
	}
	return "Hyper"
}
