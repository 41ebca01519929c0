//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"hyperkey/internal/keys"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard        = 1
	keyEventFExtendedKey = 0x0001
	keyEventFKeyUp       = 0x0002
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input повторяет раскладку INPUT: объединение занимает место MOUSEINPUT.
type input struct {
	inputType uint32
	ki        keyboardInput
	padding   uint64
}

type windowsSender struct{}

func newSender() (Sender, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("SendInput недоступен: %w", err)
	}
	return windowsSender{}, nil
}

func (windowsSender) Send(strokes []Stroke) error {
	if len(strokes) == 0 {
		return nil
	}

	// Пачка маленькая (до 4 событий), массив на стеке.
	var buf [4]input
	inputs := buf[:0]
	for _, s := range strokes {
		inputs = append(inputs, input{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:         uint16(s.Key),
				dwFlags:     flagsFor(s),
				dwExtraInfo: Signature,
			},
		})
	}

	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(unsafe.Sizeof(inputs[0])),
	)
	if int(n) != len(inputs) {
		return fmt.Errorf("SendInput: отправлено %d из %d: %w", n, len(inputs), err)
	}
	return nil
}

func flagsFor(s Stroke) uint32 {
	var flags uint32
	if keys.IsExtended(s.Key) {
		flags |= keyEventFExtendedKey
	}
	if !s.Down {
		flags |= keyEventFKeyUp
	}
	return flags
}
