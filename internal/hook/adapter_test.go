package hook

import (
	"errors"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"hyperkey/internal/config"
	"hyperkey/internal/hyper"
	"hyperkey/internal/input"
	"hyperkey/internal/keys"
)

const (
	keyA = keys.Code(0x41)
	keyB = keys.Code(0x42)
)

type fakeConfig struct {
	mu   sync.Mutex
	snap config.Snapshot
	ok   bool
}

func (f *fakeConfig) Snapshot() (config.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.ok
}

func (f *fakeConfig) set(snap config.Snapshot) {
	f.mu.Lock()
	f.snap, f.ok = snap, true
	f.mu.Unlock()
}

// loopback возвращает инжектированные события в адаптер синхронно, как это
// может сделать ОС, и записывает всё, что прошло дальше по цепочке.
type loopback struct {
	adapter    *Adapter
	downstream []input.Stroke
	err        error
}

func (l *loopback) Send(strokes []input.Stroke) error {
	if l.err != nil {
		return l.err
	}
	for _, s := range strokes {
		if !l.adapter.HandleKey(hyper.KeyEvent{Key: s.Key, Down: s.Down, Injected: true}) {
			l.downstream = append(l.downstream, s)
		}
	}
	return nil
}

// physical подаёт событие с клавиатуры.
func (l *loopback) physical(key keys.Code, down bool) {
	if !l.adapter.HandleKey(hyper.KeyEvent{Key: key, Down: down}) {
		l.downstream = append(l.downstream, input.Stroke{Key: key, Down: down})
	}
}

func (l *loopback) tap(key keys.Code) {
	l.physical(key, true)
	l.physical(key, false)
}

type rig struct {
	*loopback
	conf    *fakeConfig
	machine *hyper.Machine
	emitter *input.Emitter
}

func newRig(t *testing.T, snap config.Snapshot) *rig {
	t.Helper()
	conf := &fakeConfig{}
	conf.set(snap)
	lb := &loopback{}
	machine := hyper.New()
	emitter := input.NewEmitter(lb)
	lb.adapter = NewAdapter(machine, emitter, conf)
	return &rig{loopback: lb, conf: conf, machine: machine, emitter: emitter}
}

func hybrid() config.Snapshot {
	return config.Default()
}

func chord(alternate, down bool) []input.Stroke {
	var out []input.Stroke
	for _, k := range input.Chord(alternate) {
		out = append(out, input.Stroke{Key: k, Down: down})
	}
	return out
}

func seq(parts ...any) []input.Stroke {
	var out []input.Stroke
	for _, p := range parts {
		switch v := p.(type) {
		case []input.Stroke:
			out = append(out, v...)
		case input.Stroke:
			out = append(out, v)
		}
	}
	return out
}

func down(k keys.Code) input.Stroke { return input.Stroke{Key: k, Down: true} }
func up(k keys.Code) input.Stroke   { return input.Stroke{Key: k, Down: false} }

func assertDownstream(t *testing.T, r *rig, want []input.Stroke) {
	t.Helper()
	if !reflect.DeepEqual(r.downstream, want) {
		t.Fatalf("downstream:\n got %v\nwant %v", r.downstream, want)
	}
}

func assertIdle(t *testing.T, r *rig) {
	t.Helper()
	if st := r.machine.State(); st.Phase() != "Idle" {
		t.Fatalf("machine in %s, want Idle", st.Phase())
	}
	if r.emitter.ChordDown() {
		t.Fatal("chord latch still down")
	}
}

func TestTapProducesOriginalKey(t *testing.T) {
	r := newRig(t, hybrid())
	r.tap(keys.Capital)
	assertDownstream(t, r, seq(down(keys.Capital), up(keys.Capital)))
	assertIdle(t, r)
}

func TestHoldWithCompanionProducesChord(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.tap(keyA)
	r.physical(keys.Capital, false)

	assertDownstream(t, r, seq(chord(false, true), down(keyA), up(keyA), chord(false, false)))
	assertIdle(t, r)
}

func TestAlternateChord(t *testing.T) {
	snap := hybrid()
	snap.UseAlternateChord = true
	r := newRig(t, snap)
	r.physical(keys.Capital, true)
	r.tap(keyA)
	r.physical(keys.Capital, false)

	assertDownstream(t, r, seq(chord(true, true), down(keyA), up(keyA), chord(true, false)))
	for _, s := range r.downstream {
		if s.Key == keys.LWin {
			t.Fatal("alternate chord must not contain Win")
		}
	}
}

func TestSeveralCompanionsShareOneChord(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.physical(keyA, true)
	r.physical(keyB, true)
	r.physical(keyB, false)
	r.physical(keyA, false)
	r.tap(keyB)
	r.physical(keys.Capital, false)

	assertDownstream(t, r, seq(
		chord(false, true),
		down(keyA), down(keyB), up(keyB), up(keyA), down(keyB), up(keyB),
		chord(false, false),
	))
	assertIdle(t, r)
}

func TestRapidDoubleTap(t *testing.T) {
	r := newRig(t, hybrid())
	r.tap(keys.Capital)
	r.tap(keys.Capital)
	assertDownstream(t, r, seq(
		down(keys.Capital), up(keys.Capital),
		down(keys.Capital), up(keys.Capital),
	))
	assertIdle(t, r)
}

func TestAutorepeatIsSwallowed(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.physical(keys.Capital, true)
	r.physical(keys.Capital, true)
	r.physical(keys.Capital, false)
	assertDownstream(t, r, seq(down(keys.Capital), up(keys.Capital)))
}

func TestModifiersPassWithoutEngaging(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.tap(keys.LShift)
	r.physical(keys.Capital, false)

	// модификатор не превращает тап в аккорд
	assertDownstream(t, r, seq(
		down(keys.LShift), up(keys.LShift),
		down(keys.Capital), up(keys.Capital),
	))
	assertIdle(t, r)
}

func TestEscapeReleasesStuckChord(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.physical(keyA, true)
	r.tap(keys.Escape)
	r.physical(keyA, false)
	r.physical(keys.Capital, false)

	assertDownstream(t, r, seq(
		chord(false, true), down(keyA),
		chord(false, false), down(keys.Escape), up(keys.Escape),
		up(keyA),
	))
	assertIdle(t, r)
}

func TestOverrideMode(t *testing.T) {
	snap := hybrid()
	snap.Mode = hyper.Override
	r := newRig(t, snap)

	r.physical(keys.Capital, true)
	r.physical(keys.Capital, true)
	r.tap(keyA)
	r.physical(keys.Capital, false)

	assertDownstream(t, r, seq(
		chord(false, true), down(keys.Capital), down(keys.Capital),
		down(keyA), up(keyA),
		chord(false, false), up(keys.Capital),
	))
	assertIdle(t, r)
}

func TestConfigUnavailableFailsOpen(t *testing.T) {
	r := newRig(t, hybrid())
	r.conf.mu.Lock()
	r.conf.ok = false
	r.conf.mu.Unlock()

	r.physical(keys.Capital, true)
	r.tap(keyA)
	r.physical(keys.Capital, false)
	assertDownstream(t, r, seq(down(keys.Capital), down(keyA), up(keyA), up(keys.Capital)))
	assertIdle(t, r)
}

func TestSuspendReleasesChordAndPassesThrough(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.physical(keyA, true)

	r.adapter.SetSuspended(true)
	if !r.adapter.Suspended() {
		t.Fatal("Suspended() = false")
	}
	r.physical(keyA, false)
	r.physical(keys.Capital, false)
	r.tap(keys.Capital)

	assertDownstream(t, r, seq(
		chord(false, true), down(keyA),
		chord(false, false),
		up(keyA), up(keys.Capital), down(keys.Capital), up(keys.Capital),
	))
	assertIdle(t, r)

	r.adapter.SetSuspended(false)
	r.downstream = nil
	r.tap(keys.Capital)
	assertDownstream(t, r, seq(down(keys.Capital), up(keys.Capital)))
}

func TestResetSessionOnConfigChange(t *testing.T) {
	r := newRig(t, hybrid())
	r.physical(keys.Capital, true)
	r.physical(keyA, true)

	next := hybrid()
	next.HyperKeyCode = keys.Apps
	next.UseAlternateChord = true
	r.conf.set(next)
	r.adapter.ResetSession()

	// отпускается тот вариант, который был нажат
	assertDownstream(t, r, seq(chord(false, true), down(keyA), chord(false, false)))
	assertIdle(t, r)
}

func TestSendFailureKeepsVerdict(t *testing.T) {
	r := newRig(t, hybrid())
	r.err = errors.New("send failed")

	r.physical(keys.Capital, true)
	r.physical(keys.Capital, false)
	// синтетическое нажатие потеряно, физическое отпускание всё равно проходит
	assertDownstream(t, r, seq(up(keys.Capital)))
}

type panickingConfig struct{}

func (panickingConfig) Snapshot() (config.Snapshot, bool) {
	panic("boom")
}

func TestPanicFailsOpen(t *testing.T) {
	a := NewAdapter(hyper.New(), input.NewEmitter(&loopback{}), panickingConfig{})
	if a.HandleKey(hyper.KeyEvent{Key: keys.Capital, Down: true}) {
		t.Fatal("event blocked after panic")
	}
}

// Случайные последовательности физических нажатий: после отпускания всех
// клавиш ни одна клавиша не должна остаться нажатой ниже по цепочке.
func TestRandomSequencesStayBalanced(t *testing.T) {
	pool := []keys.Code{keys.Capital, keyA, keyB, keys.Escape, keys.LShift, keys.LControl}
	configs := []config.Snapshot{
		hybrid(),
		{Mode: hyper.Hybrid, HyperKeyCode: keys.Capital, UseAlternateChord: true},
		{Mode: hyper.Override, HyperKeyCode: keys.Capital},
	}

	rng := rand.New(rand.NewSource(1))
	for ci, snap := range configs {
		for round := 0; round < 300; round++ {
			r := newRig(t, snap)
			held := map[keys.Code]bool{}

			for step := 0; step < 40; step++ {
				k := pool[rng.Intn(len(pool))]
				switch {
				case !held[k]:
					held[k] = true
					r.physical(k, true)
				case rng.Intn(3) == 0:
					r.physical(k, true) // автоповтор
				default:
					held[k] = false
					r.physical(k, false)
				}
			}
			for _, k := range pool {
				if held[k] {
					r.physical(k, false)
				}
			}

			pressed := map[keys.Code]bool{}
			for _, s := range r.downstream {
				pressed[s.Key] = s.Down
			}
			for k, isDown := range pressed {
				if isDown {
					t.Fatalf("config %d round %d: %s left pressed; downstream %v", ci, round, k, r.downstream)
				}
			}
			if r.emitter.ChordDown() {
				t.Fatalf("config %d round %d: chord latch left down", ci, round)
			}
		}
	}
}
