// Package input отправляет синтетические нажатия клавиш обратно в поток ввода ОС.
package input

import (
	"errors"
	"sync/atomic"

	"hyperkey/internal/keys"
)

// ErrUnsupported возвращается на платформах без инъекции ввода.
var ErrUnsupported = errors.New("инъекция ввода не поддерживается на этой платформе")

// Signature записывается в dwExtraInfo каждого нашего события,
// чтобы хук мог отличить их от чужих инъекций в логах.
const Signature uintptr = 0x48595052 // "HYPR"

// Stroke - одно нажатие или отпускание.
type Stroke struct {
	Key  keys.Code
	Down bool
}

// Sender отправляет пачку событий одним системным вызовом.
type Sender interface {
	Send(strokes []Stroke) error
}

// NewSender создаёт платформо-специфичный Sender.
func NewSender() (Sender, error) {
	return newSender()
}

// Chord возвращает клавиши аккорда в порядке отправки.
func Chord(alternate bool) []keys.Code {
	if alternate {
		return []keys.Code{keys.LControl, keys.LMenu, keys.LShift}
	}
	return []keys.Code{keys.LControl, keys.LWin, keys.LMenu, keys.LShift}
}

const (
	chordUp int32 = iota
	chordDefault
	chordAlternate
)

// Emitter собирает события аккорда и отдаёт их Sender.
//
// Emitter помнит, какой аккорд сейчас нажат: повторный EmitChord в том же
// направлении ничего не отправляет, а отпускание всегда отпускает именно
// нажатый вариант, даже если настройка сменилась посередине.
type Emitter struct {
	sender Sender
	chord  atomic.Int32
}

// NewEmitter создаёт Emitter поверх sender.
func NewEmitter(sender Sender) *Emitter {
	return &Emitter{sender: sender}
}

// Emit отправляет одно событие клавиши.
func (e *Emitter) Emit(key keys.Code, down bool) error {
	return e.sender.Send([]Stroke{{Key: key, Down: down}})
}

// EmitChord нажимает или отпускает аккорд целиком одной пачкой.
func (e *Emitter) EmitChord(alternate, down bool) error {
	if down {
		want := chordDefault
		if alternate {
			want = chordAlternate
		}
		if !e.chord.CompareAndSwap(chordUp, want) {
			return nil
		}
		return e.sender.Send(strokes(Chord(alternate), true))
	}

	prev := e.chord.Swap(chordUp)
	if prev == chordUp {
		return nil
	}
	return e.sender.Send(strokes(Chord(prev == chordAlternate), false))
}

// ReleaseChord отпускает аккорд без проверки защёлки: используется как
// аварийный сброс залипших модификаторов.
func (e *Emitter) ReleaseChord(alternate bool) error {
	if prev := e.chord.Swap(chordUp); prev != chordUp {
		alternate = prev == chordAlternate
	}
	return e.sender.Send(strokes(Chord(alternate), false))
}

// ChordDown возвращает true, если аккорд сейчас нажат.
func (e *Emitter) ChordDown() bool {
	return e.chord.Load() != chordUp
}

func strokes(chord []keys.Code, down bool) []Stroke {
	out := make([]Stroke, len(chord))
	for i, k := range chord {
		out[i] = Stroke{Key: k, Down: down}
	}
	return out
}
