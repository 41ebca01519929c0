// Hyper Key - превращает одну клавишу (по умолчанию Caps Lock) в аккорд
// Ctrl+Win+Alt+Shift, оставляя её обычное действие на тап.
//
// Работает в системном трее, настройки - на странице http://127.0.0.1:19456/.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"hyperkey/internal/app"
	"hyperkey/internal/config"
	"hyperkey/internal/dialog"
	"hyperkey/internal/hotkey"
	"hyperkey/internal/i18n"
	"hyperkey/internal/server"
	"hyperkey/internal/singleinstance"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

const (
	logFileName    = "hyper-key.log"
	maxLogFileSize = 1 << 20
)

type flags struct {
	addr    string
	config  string
	lang    string
	debug   bool
	version bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("hyperkey", flag.ContinueOnError)
	fs.StringVar(&f.addr, "addr", envOr("HYPERKEY_ADDR", server.DefaultAddr), "адрес страницы настроек")
	fs.StringVar(&f.config, "config", config.DefaultPath(), "путь к файлу настроек")
	fs.StringVar(&f.lang, "lang", string(i18n.Detect()), "язык интерфейса (ru, en)")
	fs.BoolVar(&f.debug, "debug", os.Getenv("HYPERKEY_DEBUG") == "1", "логировать каждое событие клавиатуры")
	fs.BoolVar(&f.version, "version", false, "показать версию и выйти")
	err := fs.Parse(args)
	return f, err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		os.Stdout.WriteString("hyperkey " + Version + "\n")
		return
	}
	if lang, ok := i18n.Parse(opts.lang); ok {
		i18n.SetLanguage(lang)
	}

	if f, err := openLogFile(filepath.Dir(opts.config)); err != nil {
		log.Printf("Лог только в stderr: %v", err)
	} else {
		defer f.Close()
		// Файл первым: у GUI-сборки под Windows stderr может не быть
		log.SetOutput(io.MultiWriter(f, os.Stderr))
	}
	log.Printf("Hyper Key %s запускается...", Version)

	// Запускаем в главном потоке (требование для macOS и некоторых GUI)
	hotkey.RunOnMainThread(func() {
		os.Exit(run(opts))
	})
}

func run(opts flags) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Паника: %v\n%s", r, debug.Stack())
			dialog.ShowError(i18n.T("error_title"), "panic: "+errString(r))
			code = 2
		}
	}()

	lock, err := singleinstance.TryLock(singleinstance.DefaultName())
	if err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			log.Println("Другой экземпляр уже запущен")
			dialog.ShowError(i18n.T("error_title"), i18n.T("error_already_running"))
			return 1
		}
		// Без блокировки работать можно, только предупреждаем
		log.Printf("Не удалось проверить второй экземпляр: %v", err)
	}
	defer lock.Release()

	application, err := app.New(app.Options{
		ConfigPath: opts.config,
		Addr:       opts.addr,
		Debug:      opts.debug,
	})
	if err != nil {
		log.Printf("Ошибка инициализации: %v", err)
		dialog.ShowError(i18n.T("error_title"), err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Printf("Ошибка запуска: %v", err)
		msg := err.Error()
		switch {
		case errors.Is(err, app.ErrHook):
			msg = i18n.T("error_hook") + "\n\n" + msg
		case errors.Is(err, app.ErrServer):
			msg = i18n.T("error_server") + "\n\n" + msg
		}
		dialog.ShowError(i18n.T("error_title"), msg)
		return 1
	}

	go func() {
		<-ctx.Done()
		log.Println("Получен сигнал завершения")
		application.Quit()
	}()

	log.Println("Приложение запущено")
	application.Run()
	application.Close()
	return 0
}

// openLogFile открывает лог в папке настроек. Файл больше maxLogFileSize
// начинается заново.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, logFileName)
	mode := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if st, err := os.Stat(path); err == nil && st.Size() > maxLogFileSize {
		mode = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	return os.OpenFile(path, mode, 0o600)
}

func errString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown"
}
