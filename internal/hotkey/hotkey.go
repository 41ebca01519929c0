// Package hotkey предоставляет глобальную горячую клавишу приостановки.
package hotkey

import (
	"fmt"
	"log"
	"sync"
	"time"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"hyperkey/internal/keys"
)

const (
	unregisterTimeout = 500 * time.Millisecond
	debounceInterval  = 300 * time.Millisecond // Защита от key repeat
)

// Handler держит одну зарегистрированную горячую клавишу.
type Handler struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	onPress func()
	current keys.Binding
	stopCh  chan struct{}
}

// New создаёт обработчик горячей клавиши.
func New(onPress func()) *Handler {
	return &Handler{onPress: onPress}
}

// Register регистрирует сочетание, заменяя предыдущее.
func (h *Handler) Register(b keys.Binding) error {
	mods, key, err := convert(b)
	if err != nil {
		return err
	}

	log.Printf("Регистрация горячей клавиши: %s", b)
	h.release()

	h.mu.Lock()
	defer h.mu.Unlock()

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		log.Printf("Ошибка регистрации: %v", err)
		return fmt.Errorf("регистрация %s: %w", b, err)
	}

	h.hk = hk
	h.current = b
	h.stopCh = make(chan struct{})
	log.Printf("Горячая клавиша успешно зарегистрирована: %s", b)
	go h.listen(hk.Keydown(), hk.Keyup(), h.stopCh)
	return nil
}

func (h *Handler) listen(keydown, keyup <-chan hotkey.Event, stopCh chan struct{}) {
	var lastKeydown time.Time
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-keyup:
			if !ok {
				return
			}
			// Переключение идёт по нажатию, keyup только вычитываем
		case _, ok := <-keydown:
			if !ok {
				return
			}
			now := time.Now()
			if now.Sub(lastKeydown) < debounceInterval {
				continue
			}
			lastKeydown = now
			if h.onPress != nil {
				h.onPress()
			}
		}
	}
}

// release останавливает listener и отменяет регистрацию с таймаутом.
func (h *Handler) release() {
	h.mu.Lock()
	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}
	oldHk := h.hk
	h.hk = nil
	h.current = keys.Binding{}
	h.mu.Unlock()

	if oldHk == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		if err := oldHk.Unregister(); err != nil {
			log.Printf("Ошибка отмены горячей клавиши: %v", err)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(unregisterTimeout):
		log.Printf("Hotkey unregister timeout")
	}
}

// Unregister отменяет регистрацию горячей клавиши.
func (h *Handler) Unregister() {
	h.release()
}

// Current возвращает текущее сочетание; нулевое значение - ничего не зарегистрировано.
func (h *Handler) Current() keys.Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// convert переводит сочетание в типы golang.design/x/hotkey.
func convert(b keys.Binding) ([]hotkey.Modifier, hotkey.Key, error) {
	mods := make([]hotkey.Modifier, 0, 4)
	for _, m := range []keys.Mod{keys.ModCtrl, keys.ModShift, keys.ModAlt, keys.ModWin} {
		if b.Has(m) {
			mods = append(mods, modifierMap[m])
		}
	}
	key, ok := keyFor(b.Key)
	if !ok {
		return nil, 0, fmt.Errorf("клавиша %s не поддерживается для горячих клавиш на этой платформе", b.Key)
	}
	return mods, key, nil
}

func keyFor(c keys.Code) (hotkey.Key, bool) {
	if k, ok := keyMap[c]; ok {
		return k, true
	}
	return rawKey(c)
}

// modifierMap и rawKey определены в platform-specific файлах:
// - modifiers_linux.go
// - modifiers_darwin.go
// - modifiers_windows.go

// keyMap маппинг keys.Code -> hotkey.Key для клавиш, общих для всех платформ
var keyMap = map[keys.Code]hotkey.Key{
	keys.Space:   hotkey.KeySpace,
	keys.Return:  hotkey.KeyReturn,
	keys.Tab:     hotkey.KeyTab,
	'A':          hotkey.KeyA,
	'B':          hotkey.KeyB,
	'C':          hotkey.KeyC,
	'D':          hotkey.KeyD,
	'E':          hotkey.KeyE,
	'F':          hotkey.KeyF,
	'G':          hotkey.KeyG,
	'H':          hotkey.KeyH,
	'I':          hotkey.KeyI,
	'J':          hotkey.KeyJ,
	'K':          hotkey.KeyK,
	'L':          hotkey.KeyL,
	'M':          hotkey.KeyM,
	'N':          hotkey.KeyN,
	'O':          hotkey.KeyO,
	'P':          hotkey.KeyP,
	'Q':          hotkey.KeyQ,
	'R':          hotkey.KeyR,
	'S':          hotkey.KeyS,
	'T':          hotkey.KeyT,
	'U':          hotkey.KeyU,
	'V':          hotkey.KeyV,
	'W':          hotkey.KeyW,
	'X':          hotkey.KeyX,
	'Y':          hotkey.KeyY,
	'Z':          hotkey.KeyZ,
	keys.F1:      hotkey.KeyF1,
	keys.F1 + 1:  hotkey.KeyF2,
	keys.F1 + 2:  hotkey.KeyF3,
	keys.F1 + 3:  hotkey.KeyF4,
	keys.F1 + 4:  hotkey.KeyF5,
	keys.F1 + 5:  hotkey.KeyF6,
	keys.F1 + 6:  hotkey.KeyF7,
	keys.F1 + 7:  hotkey.KeyF8,
	keys.F1 + 8:  hotkey.KeyF9,
	keys.F1 + 9:  hotkey.KeyF10,
	keys.F1 + 10: hotkey.KeyF11,
	keys.F1 + 11: hotkey.KeyF12,
}
