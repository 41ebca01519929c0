//go:build windows

package singleinstance

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Lock держит именованный мьютекс сессии. Ядро закрывает его вместе с процессом.
type Lock struct {
	handle windows.Handle
}

// TryLock захватывает мьютекс Local\<name>.
func TryLock(name string) (*Lock, error) {
	name, err := lockName(name)
	if err != nil {
		return nil, err
	}
	h, err := createMutex(`Local\` + name)
	switch {
	case errors.Is(err, windows.ERROR_ALREADY_EXISTS):
		return nil, ErrAlreadyRunning
	case err != nil:
		return nil, fmt.Errorf("мьютекс %s: %w", name, err)
	}
	return &Lock{handle: h}, nil
}

// createMutex возвращает дескриптор только при успехе; при ошибке,
// включая ERROR_ALREADY_EXISTS, дескриптор закрыт.
func createMutex(name string) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	h, err := windows.CreateMutex(nil, true, p)
	if err != nil {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return 0, err
	}
	return h, nil
}

// Release закрывает мьютекс. Безопасен для nil и повторного вызова.
func (l *Lock) Release() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	h := l.handle
	l.handle = 0
	return windows.CloseHandle(h)
}
