package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce - редакторы пишут файл в несколько приёмов (truncate, write,
// rename), перечитываем один раз после затишья.
const watchDebounce = 250 * time.Millisecond

// Watch перечитывает конфигурацию, когда файл меняется снаружи.
// Блокирует до отмены ctx. onError получает ошибки перечитывания (может быть nil).
func (s *Store) Watch(ctx context.Context, onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	// Следим за папкой: атомарная запись подменяет файл через rename,
	// и наблюдение за самим файлом потерялось бы.
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("наблюдение за %s: %w", dir, err)
	}
	name := filepath.Clean(s.path)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("Ошибка наблюдения за конфигурацией: %v", err)

		case <-timer.C:
			if err := s.Reload(); err != nil {
				log.Printf("Файл конфигурации изменён, но не применён: %v", err)
				if onError != nil {
					onError(err)
				}
			}
		}
	}
}
