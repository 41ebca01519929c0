// Package hyper реализует конечный автомат hyper-клавиши.
//
// Автомат не зависит от платформы: он получает переход клавиши и снимок
// конфигурации и возвращает решение, которое применяет адаптер перехвата.
package hyper

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"hyperkey/internal/keys"
)

// Mode - режим работы hyper-клавиши.
type Mode int

const (
	// Hybrid: нажатие без спутника даёт исходную клавишу, удержание со спутником - аккорд.
	Hybrid Mode = iota
	// Override: клавиша всегда работает только как аккорд.
	Override
)

// String возвращает имя режима.
func (m Mode) String() string {
	switch m {
	case Hybrid:
		return "Hybrid"
	case Override:
		return "Override"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid возвращает true для известных режимов.
func (m Mode) Valid() bool {
	return m == Hybrid || m == Override
}

// MarshalJSON сериализует режим строкой.
func (m Mode) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("неизвестный режим %d", int(m))
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON принимает "Hybrid"/"Override" и старую числовую форму 0/1.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return m.parse(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("режим должен быть строкой или числом: %s", data)
	}
	if !Mode(n).Valid() {
		return fmt.Errorf("неизвестный режим %d", n)
	}
	*m = Mode(n)
	return nil
}

func (m *Mode) parse(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hybrid":
		*m = Hybrid
	case "override":
		*m = Override
	default:
		return fmt.Errorf("неизвестный режим %q", s)
	}
	return nil
}

// Config - снимок настроек, который автомат получает на каждое событие.
type Config struct {
	Mode              Mode
	HyperKey          keys.Code
	UseAlternateChord bool
}

// KeyEvent - один физический (или инжектированный) переход клавиши.
type KeyEvent struct {
	Key  keys.Code
	Down bool
	// Injected выставляется адаптером по флагу ОС, только для логов.
	Injected bool
}

// Decision - что адаптер должен сделать с событием.
type Decision int

const (
	// None - пропустить событие без изменений.
	None Decision = iota
	// Interrupt - поглотить событие.
	Interrupt
	// EmitChord - отправить аккорд в направлении события и пропустить событие.
	EmitChord
	// EmitChordThenInterruptIfTrigger - отправить аккорд в направлении события
	// и поглотить событие, если это сама hyper-клавиша.
	EmitChordThenInterruptIfTrigger
	// Cancel - отправить синтетическое нажатие hyper-клавиши и пропустить
	// физическое отпускание: получается обычный тап исходной клавиши.
	Cancel
	// Reset - принудительно отпустить аккорд и пропустить Escape.
	Reset
)

var decisionNames = [...]string{
	None:                            "None",
	Interrupt:                       "Interrupt",
	EmitChord:                       "EmitChord",
	EmitChordThenInterruptIfTrigger: "EmitChordThenInterruptIfTrigger",
	Cancel:                          "Cancel",
	Reset:                           "Reset",
}

// String возвращает имя решения.
func (d Decision) String() string {
	if d >= 0 && int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// State - копия флагов сессии.
type State struct {
	Held       bool
	Sent       bool
	Cancelling bool
}

// Phase возвращает имя состояния автомата.
func (s State) Phase() string {
	switch {
	case s.Cancelling:
		return "Cancelling"
	case s.Held && s.Sent:
		return "Engaged"
	case s.Held:
		return "Armed"
	default:
		return "Idle"
	}
}

// Machine хранит состояние одного цикла нажатие-удержание-отпускание.
// Мьютекс держится только внутри методов; эмиссию выполняет вызывающий.
type Machine struct {
	mu         sync.Mutex
	held       bool
	sent       bool
	cancelling bool
}

// New создаёт автомат в состоянии Idle.
func New() *Machine {
	return &Machine{}
}

// Process применяет событие к состоянию и возвращает решение.
func (m *Machine) Process(ev KeyEvent, cfg Config) Decision {
	if cfg.Mode == Override {
		if ev.Key == cfg.HyperKey {
			return EmitChord
		}
		return None
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case ev.Key == cfg.HyperKey:
		return m.processTrigger(ev.Down)

	case ev.Key == keys.Escape:
		if m.held || m.sent || m.cancelling {
			m.held, m.sent, m.cancelling = false, false, false
			return Reset
		}

	case keys.IsModifier(ev.Key):
		// Модификаторы складываются с аккордом сами.

	case m.held:
		if ev.Down {
			m.sent = true
			return EmitChord
		}
	}
	return None
}

func (m *Machine) processTrigger(down bool) Decision {
	if m.cancelling {
		// Нажатие здесь - синтетическое нажатие из Cancel (или новый тап):
		// пропускаем его и начинаем цикл заново.
		if down {
			m.cancelling = false
			m.held = false
		}
		return None
	}

	if !m.held {
		if down {
			m.held = true
		}
		return Interrupt
	}

	if down {
		// автоповтор
		return Interrupt
	}

	m.held = false
	if m.sent {
		m.sent = false
		return EmitChordThenInterruptIfTrigger
	}
	m.cancelling = true
	return Cancel
}

// Reset сбрасывает сессию в Idle.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held, m.sent, m.cancelling = false, false, false
}

// State возвращает копию флагов.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Held: m.held, Sent: m.sent, Cancelling: m.cancelling}
}
