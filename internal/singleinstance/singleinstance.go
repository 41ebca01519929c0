// Package singleinstance не даёт запустить второй экземпляр приложения:
// два хука с одной hyper-клавишей отправляли бы аккорд дважды.
package singleinstance

import (
	"errors"
	"os"
	"os/user"
	"strings"
)

// ErrAlreadyRunning возвращается TryLock, если блокировку держит другой процесс.
var ErrAlreadyRunning = errors.New("приложение уже запущено")

var errEmptyName = errors.New("не задано имя блокировки")

// lockName проверяет имя и приводит его к виду, допустимому и для имени
// объекта ядра Windows, и для имени файла.
func lockName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errEmptyName
	}
	return sanitize(name), nil
}

// DefaultName возвращает имя блокировки для текущего пользователя.
func DefaultName() string {
	username := strings.TrimSpace(os.Getenv("USERNAME"))
	if username == "" {
		username = strings.TrimSpace(os.Getenv("USER"))
	}
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}
	return "hyper-key-" + sanitize(username)
}

// sanitize оставляет в имени только буквы, цифры, '-' и '_'.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
