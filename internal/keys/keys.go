// Package keys описывает виртуальные коды клавиш Windows и их классификацию.
package keys

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Code - виртуальный код клавиши (VK_*).
type Code uint16

// Виртуальные коды, которые нужны движку и интерфейсу.
const (
	Back     Code = 0x08
	Tab      Code = 0x09
	Return   Code = 0x0D
	Shift    Code = 0x10
	Control  Code = 0x11
	Menu     Code = 0x12 // Alt
	Pause    Code = 0x13
	Capital  Code = 0x14 // Caps Lock
	Escape   Code = 0x1B
	Space    Code = 0x20
	Prior    Code = 0x21 // Page Up
	Next     Code = 0x22 // Page Down
	End      Code = 0x23
	Home     Code = 0x24
	Left     Code = 0x25
	Up       Code = 0x26
	Right    Code = 0x27
	Down     Code = 0x28
	Snapshot Code = 0x2C // Print Screen
	Insert   Code = 0x2D
	Delete   Code = 0x2E
	LWin     Code = 0x5B
	RWin     Code = 0x5C
	Apps     Code = 0x5D
	Numpad0  Code = 0x60
	Multiply Code = 0x6A
	Add      Code = 0x6B
	Subtract Code = 0x6D
	Decimal  Code = 0x6E
	Divide   Code = 0x6F
	F1       Code = 0x70
	F24      Code = 0x87
	NumLock  Code = 0x90
	Scroll   Code = 0x91
	LShift   Code = 0xA0
	RShift   Code = 0xA1
	LControl Code = 0xA2
	RControl Code = 0xA3
	LMenu    Code = 0xA4
	RMenu    Code = 0xA5
	Oem1     Code = 0xBA // ;:
	OemPlus  Code = 0xBB
	OemComma Code = 0xBC
	OemMinus Code = 0xBD
	OemDot   Code = 0xBE
	Oem2     Code = 0xBF // /?
	Oem3     Code = 0xC0 // `~
	Oem4     Code = 0xDB // [{
	Oem5     Code = 0xDC // \|
	Oem6     Code = 0xDD // ]}
	Oem7     Code = 0xDE // '"
)

// IsModifier возвращает true для Ctrl, Shift, Alt и Win во всех вариантах.
// Такие клавиши никогда не считаются "спутником" hyper-клавиши.
func IsModifier(c Code) bool {
	switch c {
	case Control, LControl, RControl,
		Shift, LShift, RShift,
		Menu, LMenu, RMenu,
		LWin, RWin:
		return true
	}
	return false
}

// IsExtended возвращает true для клавиш, которые при инъекции должны иметь
// флаг KEYEVENTF_EXTENDEDKEY. Без него навигационные клавиши считаются
// клавишами цифрового блока, и Shift+<стрелка> зависит от состояния Num Lock.
// Список: https://learn.microsoft.com/en-us/windows/win32/inputdev/about-keyboard-input#extended-key-flag
//
// TODO: Break (Ctrl+Pause) и Enter цифрового блока не различимы по одному VK.
func IsExtended(c Code) bool {
	switch c {
	case RMenu, RControl,
		Up, Down, Left, Right,
		Insert, Delete, Home, End, Prior, Next,
		NumLock, Snapshot, Divide:
		return true
	}
	return false
}

var namesByCode = map[Code]string{
	Back:     "Backspace",
	Tab:      "Tab",
	Return:   "Enter",
	Shift:    "Shift",
	Control:  "Ctrl",
	Menu:     "Alt",
	Pause:    "Pause",
	Capital:  "CapsLock",
	Escape:   "Escape",
	Space:    "Space",
	Prior:    "PageUp",
	Next:     "PageDown",
	End:      "End",
	Home:     "Home",
	Left:     "Left",
	Up:       "Up",
	Right:    "Right",
	Down:     "Down",
	Snapshot: "PrintScreen",
	Insert:   "Insert",
	Delete:   "Delete",
	LWin:     "LWin",
	RWin:     "RWin",
	Apps:     "Apps",
	Multiply: "NumpadMultiply",
	Add:      "NumpadAdd",
	Subtract: "NumpadSubtract",
	Decimal:  "NumpadDecimal",
	Divide:   "NumpadDivide",
	NumLock:  "NumLock",
	Scroll:   "ScrollLock",
	LShift:   "LShift",
	RShift:   "RShift",
	LControl: "LCtrl",
	RControl: "RCtrl",
	LMenu:    "LAlt",
	RMenu:    "RAlt",
	Oem1:     ";",
	OemPlus:  "=",
	OemComma: ",",
	OemMinus: "-",
	OemDot:   ".",
	Oem2:     "/",
	Oem3:     "`",
	Oem4:     "[",
	Oem5:     "\\",
	Oem6:     "]",
	Oem7:     "'",
}

var codesByName = func() map[string]Code {
	m := make(map[string]Code, len(namesByCode)+64)
	for c, n := range namesByCode {
		m[strings.ToUpper(n)] = c
	}
	for c := Code('A'); c <= 'Z'; c++ {
		m[string(rune(c))] = c
	}
	for c := Code('0'); c <= '9'; c++ {
		m[string(rune(c))] = c
	}
	for i := Code(0); i <= F24-F1; i++ {
		m["F"+strconv.Itoa(int(i)+1)] = F1 + i
	}
	for i := Code(0); i <= 9; i++ {
		m["NUMPAD"+strconv.Itoa(int(i))] = Numpad0 + i
	}
	// синонимы
	m["CAPS"] = Capital
	m["ESC"] = Escape
	m["RETURN"] = Return
	m["DEL"] = Delete
	m["INS"] = Insert
	m["PGUP"] = Prior
	m["PGDN"] = Next
	m["SCROLL"] = Scroll
	m["MENU"] = Apps
	return m
}()

// Name возвращает читаемое имя клавиши, для неизвестных кодов - "0xNN".
func Name(c Code) string {
	if n, ok := namesByCode[c]; ok {
		return n
	}
	switch {
	case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return string(rune(c))
	case c >= F1 && c <= F24:
		return "F" + strconv.Itoa(int(c-F1)+1)
	case c >= Numpad0 && c <= Numpad0+9:
		return "Numpad" + strconv.Itoa(int(c-Numpad0))
	}
	return fmt.Sprintf("0x%02X", uint16(c))
}

// String реализует fmt.Stringer.
func (c Code) String() string {
	return Name(c)
}

// Parse разбирает имя клавиши ("CapsLock", "f13", "A") или hex-код ("0x14").
func Parse(raw string) (Code, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, fmt.Errorf("пустое имя клавиши")
	}
	if c, ok := codesByName[token]; ok {
		return c, nil
	}
	if strings.HasPrefix(token, "0X") {
		v, err := strconv.ParseUint(token[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("неверный hex-код клавиши %q", raw)
		}
		if v == 0 || v > 0xFF {
			return 0, fmt.Errorf("код клавиши %q вне диапазона 0x01-0xFF", raw)
		}
		return Code(v), nil
	}
	return 0, fmt.Errorf("неизвестная клавиша %q", raw)
}

// Named - клавиша для списка выбора на странице настроек.
type Named struct {
	Code Code   `json:"code"`
	Name string `json:"name"`
}

// CanBeHyper сообщает, можно ли назначить c hyper-клавишей. Escape занят
// сбросом зависшего аккорда, модификаторы входят в сам аккорд.
func CanBeHyper(c Code) bool {
	return c != 0 && c <= 0xFF && c != Escape && !IsModifier(c)
}

// Candidates возвращает клавиши, которые можно назначить hyper-клавишей,
// отсортированные по коду.
func Candidates() []Named {
	seen := make(map[Code]bool)
	out := make([]Named, 0, 128)
	for _, c := range codesByName {
		if seen[c] || !CanBeHyper(c) {
			continue
		}
		seen[c] = true
		out = append(out, Named{Code: c, Name: Name(c)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
