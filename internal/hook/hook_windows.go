//go:build windows

package hook

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"hyperkey/internal/hyper"
	"hyperkey/internal/keys"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW  = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	pmNoRemove = 0x0000

	llkhfInjected = 0x00000010

	stopTimeout = 2 * time.Second
)

// kbdllHookStruct повторяет KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type point struct {
	x int32
	y int32
}

// winMsg повторяет MSG, порядок полей менять нельзя.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type loopReady struct {
	threadID uint32
	err      error
}

// Колбэк создаётся один раз на процесс: число колбэков windows.NewCallback ограничено.
var (
	callbackOnce sync.Once
	callback     uintptr
	current      atomic.Pointer[Handler]
)

// Hook держит WH_KEYBOARD_LL на отдельном потоке ОС с очередью сообщений.
// В процессе одновременно может работать только один Hook.
type Hook struct {
	handler Handler

	mu       sync.Mutex
	threadID uint32
	done     chan struct{}
}

// New создаёт Hook, который передаёт события в handler.
func New(handler Handler) *Hook {
	return &Hook{handler: handler}
}

// Start устанавливает хук. Повторный вызов ничего не делает.
func (h *Hook) Start() error {
	if err := user32.Load(); err != nil {
		return fmt.Errorf("user32.dll недоступна: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return nil
	}

	callbackOnce.Do(func() {
		callback = windows.NewCallback(lowLevelKeyboardProc)
	})
	handler := h.handler
	current.Store(&handler)

	readyCh := make(chan loopReady, 1)
	done := make(chan struct{})
	go runLoop(readyCh, done)

	ready := <-readyCh
	if ready.err != nil {
		current.Store(nil)
		return fmt.Errorf("не удалось установить хук клавиатуры: %w", ready.err)
	}

	h.threadID = ready.threadID
	h.done = done
	log.Println("Хук клавиатуры установлен")
	return nil
}

// Stop снимает хук и ждёт завершения цикла сообщений. Повторный вызов ничего не делает.
func (h *Hook) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done == nil {
		return
	}
	done := h.done
	h.done = nil

	if err := postQuit(h.threadID); err != nil {
		log.Printf("Не удалось остановить цикл хука: %v", err)
	}

	select {
	case <-done:
		log.Println("Хук клавиатуры снят")
	case <-time.After(stopTimeout):
		log.Println("Цикл хука не завершился вовремя, поток может утечь")
	}
	current.Store(nil)
}

func runLoop(readyCh chan<- loopReady, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	threadID := windows.GetCurrentThreadId()

	// PeekMessageW создаёт очередь потока, иначе WM_QUIT из Stop потеряется.
	var qmsg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		readyCh <- loopReady{err: err}
		return
	}

	hhook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, callback, uintptr(module), 0)
	if hhook == 0 {
		if errors.Is(err, windows.ERROR_SUCCESS) {
			err = errors.New("SetWindowsHookExW вернул NULL")
		}
		readyCh <- loopReady{err: err}
		return
	}
	defer func() {
		if ret, _, err := procUnhookWindowsHook.Call(hhook); ret == 0 {
			log.Printf("UnhookWindowsHookEx: %v", err)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			log.Printf("GetMessageW: %v, цикл хука завершён", lastErr)
			return
		case 0:
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func lowLevelKeyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		if handler := current.Load(); handler != nil {
			if ev, ok := toKeyEvent(wParam, lParam); ok && (*handler).HandleKey(ev) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func toKeyEvent(wParam, lParam uintptr) (hyper.KeyEvent, bool) {
	var down bool
	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		down = true
	case wmKeyUp, wmSysKeyUp:
	default:
		return hyper.KeyEvent{}, false
	}
	kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
	return hyper.KeyEvent{
		Key:      keys.Code(kb.vkCode),
		Down:     down,
		Injected: kb.flags&llkhfInjected != 0,
	}, true
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("нет потока хука")
	}
	ret, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if ret == 0 {
		return err
	}
	return nil
}
