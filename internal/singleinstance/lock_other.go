//go:build !windows && !unix

package singleinstance

// Lock на этой платформе ничего не блокирует.
type Lock struct{}

// TryLock всегда успешен.
func TryLock(string) (*Lock, error) { return &Lock{}, nil }

// Release ничего не делает.
func (l *Lock) Release() error { return nil }
