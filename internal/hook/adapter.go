// Package hook связывает системный перехват клавиатуры с автоматом hyper-клавиши.
//
// Adapter не зависит от платформы и тестируется без ОС; Hook - тонкая обёртка
// над WH_KEYBOARD_LL, которая передаёт каждое событие в Adapter.HandleKey.
package hook

import (
	"errors"
	"log"
	"sync/atomic"

	"hyperkey/internal/config"
	"hyperkey/internal/hyper"
	"hyperkey/internal/input"
)

// ErrUnsupported возвращается Hook.Start на платформах без глобального перехвата.
var ErrUnsupported = errors.New("перехват клавиатуры не поддерживается на этой платформе")

// Snapshotter отдаёт текущий снимок настроек. ok == false означает, что
// настройки ещё не загружены.
type Snapshotter interface {
	Snapshot() (config.Snapshot, bool)
}

// Handler обрабатывает одно событие и возвращает true, если его нужно поглотить.
type Handler interface {
	HandleKey(ev hyper.KeyEvent) bool
}

// Adapter применяет решения автомата: отправляет аккорд и выносит вердикт
// "пропустить/поглотить". Любая ошибка внутри пропускает событие как есть.
type Adapter struct {
	machine *hyper.Machine
	emitter *input.Emitter
	conf    Snapshotter

	suspended atomic.Bool
	debug     atomic.Bool
}

// NewAdapter создаёт адаптер.
func NewAdapter(machine *hyper.Machine, emitter *input.Emitter, conf Snapshotter) *Adapter {
	return &Adapter{machine: machine, emitter: emitter, conf: conf}
}

// SetDebug включает лог каждого события.
func (a *Adapter) SetDebug(on bool) {
	a.debug.Store(on)
}

// HandleKey вызывается из системного колбэка для каждого события.
// Блокировка автомата не удерживается во время отправки аккорда, поэтому
// инжектированные события могут синхронно вернуться сюда же.
func (a *Adapter) HandleKey(ev hyper.KeyEvent) (block bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Паника в обработчике клавиш (%v), событие пропущено", r)
			block = false
		}
	}()

	if a.suspended.Load() {
		return false
	}
	snap, ok := a.conf.Snapshot()
	if !ok {
		return false
	}
	cfg := snap.Engine()

	decision := a.machine.Process(ev, cfg)
	if a.debug.Load() {
		log.Printf("Клавиша %s down=%v injected=%v -> %s (%s)",
			ev.Key, ev.Down, ev.Injected, decision, a.machine.State().Phase())
	}

	switch decision {
	case hyper.Interrupt:
		return true

	case hyper.EmitChord:
		a.report(a.emitter.EmitChord(cfg.UseAlternateChord, ev.Down))
		return false

	case hyper.EmitChordThenInterruptIfTrigger:
		a.report(a.emitter.EmitChord(cfg.UseAlternateChord, ev.Down))
		return ev.Key == cfg.HyperKey

	case hyper.Cancel:
		a.report(a.emitter.Emit(cfg.HyperKey, true))
		return false

	case hyper.Reset:
		a.report(a.emitter.ReleaseChord(cfg.UseAlternateChord))
		return false
	}
	return false
}

// SetSuspended включает и выключает сквозной режим. При включении
// залипший аккорд отпускается, а сессия сбрасывается.
func (a *Adapter) SetSuspended(on bool) {
	if a.suspended.Swap(on) == on {
		return
	}
	if on {
		a.ResetSession()
	}
}

// Suspended возвращает true в сквозном режиме.
func (a *Adapter) Suspended() bool {
	return a.suspended.Load()
}

// ResetSession сбрасывает автомат и отпускает аккорд, если он нажат.
// Вызывается при смене настроек, чтобы старая сессия не пережила новую клавишу.
func (a *Adapter) ResetSession() {
	a.machine.Reset()
	if a.emitter.ChordDown() {
		// вариант берётся из защёлки, аргумент не важен
		a.report(a.emitter.EmitChord(false, false))
	}
}

func (a *Adapter) report(err error) {
	if err != nil {
		log.Printf("Ошибка отправки аккорда: %v", err)
	}
}
