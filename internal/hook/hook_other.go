//go:build !windows

package hook

// Hook на этой платформе не умеет перехватывать клавиатуру.
type Hook struct{}

// New создаёт Hook.
func New(Handler) *Hook {
	return &Hook{}
}

// Start всегда возвращает ErrUnsupported.
func (h *Hook) Start() error {
	return ErrUnsupported
}

// Stop ничего не делает.
func (h *Hook) Stop() {}
