package keys

import (
	"fmt"
	"strings"
)

// Mod - набор модификаторов глобальной горячей клавиши.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModShift
	ModAlt
	ModWin
)

var modNames = []struct {
	mod  Mod
	name string
}{
	{ModCtrl, "ctrl"},
	{ModShift, "shift"},
	{ModAlt, "alt"},
	{ModWin, "win"},
}

var modSynonyms = map[string]Mod{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"win":     ModWin,
	"super":   ModWin,
	"cmd":     ModWin,
}

// Binding - сочетание вида "ctrl+shift+F12".
type Binding struct {
	Mods Mod
	Key  Code
}

// ParseBinding разбирает сочетание. Нужен хотя бы один модификатор и ровно
// одна обычная клавиша в конце.
func ParseBinding(raw string) (Binding, error) {
	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("сочетание %q: нужен модификатор и клавиша", raw)
	}

	var b Binding
	for _, p := range parts[:len(parts)-1] {
		m, ok := modSynonyms[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return Binding{}, fmt.Errorf("сочетание %q: неизвестный модификатор %q", raw, p)
		}
		if b.Mods&m != 0 {
			return Binding{}, fmt.Errorf("сочетание %q: модификатор %q повторяется", raw, p)
		}
		b.Mods |= m
	}

	key, err := Parse(parts[len(parts)-1])
	if err != nil {
		return Binding{}, fmt.Errorf("сочетание %q: %w", raw, err)
	}
	if IsModifier(key) {
		return Binding{}, fmt.Errorf("сочетание %q: последней должна быть обычная клавиша", raw)
	}
	b.Key = key
	return b, nil
}

// Has возвращает true, если модификатор входит в сочетание.
func (b Binding) Has(m Mod) bool {
	return b.Mods&m != 0
}

// String возвращает нормализованную запись: модификаторы в постоянном порядке.
func (b Binding) String() string {
	var sb strings.Builder
	for _, mn := range modNames {
		if b.Has(mn.mod) {
			sb.WriteString(mn.name)
			sb.WriteByte('+')
		}
	}
	sb.WriteString(Name(b.Key))
	return sb.String()
}
