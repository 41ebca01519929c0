package hyper

import (
	"encoding/json"
	"testing"

	"hyperkey/internal/keys"
)

var hybridCfg = Config{Mode: Hybrid, HyperKey: keys.Capital}

func press(k keys.Code) KeyEvent   { return KeyEvent{Key: k, Down: true} }
func release(k keys.Code) KeyEvent { return KeyEvent{Key: k, Down: false} }

type step struct {
	ev   KeyEvent
	want Decision
}

func runSteps(t *testing.T, m *Machine, cfg Config, steps []step) {
	t.Helper()
	for i, s := range steps {
		if got := m.Process(s.ev, cfg); got != s.want {
			t.Fatalf("step %d (%s down=%v): got %s, want %s", i, s.ev.Key, s.ev.Down, got, s.want)
		}
	}
}

func TestPassthroughWithoutHold(t *testing.T) {
	m := New()
	for k := keys.Code(1); k <= 0xFE; k++ {
		if k == hybridCfg.HyperKey {
			continue
		}
		for _, down := range []bool{true, false} {
			if got := m.Process(KeyEvent{Key: k, Down: down}, hybridCfg); got != None {
				t.Fatalf("key %s down=%v: got %s, want None", k, down, got)
			}
			if st := m.State(); st != (State{}) {
				t.Fatalf("key %s mutated state: %+v", k, st)
			}
		}
	}
}

func TestHybridTap(t *testing.T) {
	m := New()
	runSteps(t, m, hybridCfg, []step{
		{press(keys.Capital), Interrupt},
		{release(keys.Capital), Cancel},
	})
	if st := m.State(); !st.Cancelling || st.Held {
		t.Fatalf("after tap: got %+v, want cancelling only", st)
	}

	// синтетическое нажатие из Cancel возвращается в хук
	runSteps(t, m, hybridCfg, []step{{press(keys.Capital), None}})
	if st := m.State(); st != (State{}) {
		t.Fatalf("after synthetic press: got %+v, want Idle", st)
	}
}

func TestHybridChord(t *testing.T) {
	m := New()
	runSteps(t, m, hybridCfg, []step{
		{press(keys.Capital), Interrupt},
		{press('A'), EmitChord},
		{release('A'), None},
		{release(keys.Capital), EmitChordThenInterruptIfTrigger},
	})
	if st := m.State(); st != (State{}) {
		t.Fatalf("after chord: got %+v, want Idle", st)
	}
}

func TestEngagedSubsequentCompanions(t *testing.T) {
	m := New()
	runSteps(t, m, hybridCfg, []step{
		{press(keys.Capital), Interrupt},
		{press('A'), EmitChord},
		{press(keys.Capital), Interrupt}, // автоповтор
		{release('A'), None},
		{press('B'), EmitChord},
		{release('B'), None},
		{release(keys.Capital), EmitChordThenInterruptIfTrigger},
	})
	if got := m.State().Phase(); got != "Idle" {
		t.Fatalf("phase = %s, want Idle", got)
	}
}

func TestRapidDoubleTap(t *testing.T) {
	m := New()
	cycle := []step{
		{press(keys.Capital), Interrupt},
		{release(keys.Capital), Cancel},
		{press(keys.Capital), None}, // синтетическое нажатие
	}
	for i := 0; i < 2; i++ {
		runSteps(t, m, hybridCfg, cycle)
		if st := m.State(); st.Held || st.Cancelling {
			t.Fatalf("cycle %d left state %+v", i, st)
		}
	}
}

func TestCancellingForwardsRelease(t *testing.T) {
	m := New()
	runSteps(t, m, hybridCfg, []step{
		{press(keys.Capital), Interrupt},
		{release(keys.Capital), Cancel},
		{release(keys.Capital), None},
		{press('X'), None},
	})
	if st := m.State(); !st.Cancelling {
		t.Fatalf("release while cancelling changed state: %+v", st)
	}
}

func TestModifiersDoNotEngage(t *testing.T) {
	m := New()
	runSteps(t, m, hybridCfg, []step{
		{press(keys.Capital), Interrupt},
		{press(keys.LShift), None},
		{release(keys.LShift), None},
		{release(keys.Capital), Cancel},
	})
}

func TestEscapeResets(t *testing.T) {
	tests := []struct {
		name  string
		setup []KeyEvent
	}{
		{"armed", []KeyEvent{press(keys.Capital)}},
		{"engaged", []KeyEvent{press(keys.Capital), press('A')}},
		{"cancelling", []KeyEvent{press(keys.Capital), release(keys.Capital)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for _, ev := range tt.setup {
				m.Process(ev, hybridCfg)
			}
			if got := m.Process(press(keys.Escape), hybridCfg); got != Reset {
				t.Fatalf("escape: got %s, want Reset", got)
			}
			if st := m.State(); st != (State{}) {
				t.Fatalf("after reset: %+v", st)
			}
			// новый цикл начинается с Idle
			if got := m.Process(press(keys.Capital), hybridCfg); got != Interrupt {
				t.Fatalf("fresh press: got %s, want Interrupt", got)
			}
		})
	}
}

func TestEscapeWhenIdle(t *testing.T) {
	m := New()
	runSteps(t, m, hybridCfg, []step{
		{press(keys.Escape), None},
		{release(keys.Escape), None},
	})
}

// Клавиши аккорда возвращаются в хук после инъекции и не должны
// менять состояние ни в одной фазе.
func TestChordKeysNeverRecurse(t *testing.T) {
	chord := []keys.Code{keys.LControl, keys.LWin, keys.LMenu, keys.LShift}
	setups := map[string][]KeyEvent{
		"idle":       nil,
		"armed":      {press(keys.Capital)},
		"engaged":    {press(keys.Capital), press('A')},
		"cancelling": {press(keys.Capital), release(keys.Capital)},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			m := New()
			for _, ev := range setup {
				m.Process(ev, hybridCfg)
			}
			before := m.State()
			for _, k := range chord {
				if k == hybridCfg.HyperKey {
					t.Fatalf("chord key %s collides with hyper key", k)
				}
				for _, down := range []bool{true, false} {
					if got := m.Process(KeyEvent{Key: k, Down: down, Injected: true}, hybridCfg); got != None {
						t.Fatalf("%s down=%v: got %s, want None", k, down, got)
					}
				}
			}
			if after := m.State(); after != before {
				t.Fatalf("state changed: %+v -> %+v", before, after)
			}
		})
	}
}

func TestOverride(t *testing.T) {
	cfg := Config{Mode: Override, HyperKey: keys.Capital, UseAlternateChord: true}
	m := New()
	runSteps(t, m, cfg, []step{
		{press(keys.Capital), EmitChord},
		{press('A'), None},
		{release('A'), None},
		{release(keys.Capital), EmitChord},
		{press(keys.Escape), None},
	})
	if st := m.State(); st != (State{}) {
		t.Fatalf("override touched state: %+v", st)
	}
}

func TestResetMethod(t *testing.T) {
	m := New()
	m.Process(press(keys.Capital), hybridCfg)
	m.Process(press('A'), hybridCfg)
	m.Reset()
	if st := m.State(); st != (State{}) {
		t.Fatalf("Reset left %+v", st)
	}
}

func TestModeJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{`"Hybrid"`, Hybrid, false},
		{`"override"`, Override, false},
		{`0`, Hybrid, false},
		{`1`, Override, false},
		{`2`, 0, true},
		{`"toggle"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		var m Mode
		err := json.Unmarshal([]byte(tt.in), &m)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Unmarshal(%s): err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
		if err == nil && m != tt.want {
			t.Fatalf("Unmarshal(%s) = %s, want %s", tt.in, m, tt.want)
		}
	}

	out, err := json.Marshal(Override)
	if err != nil || string(out) != `"Override"` {
		t.Fatalf("Marshal(Override) = %s, %v", out, err)
	}
	if _, err := json.Marshal(Mode(7)); err == nil {
		t.Fatal("Marshal of unknown mode should fail")
	}
}

func TestPhaseNames(t *testing.T) {
	tests := []struct {
		st   State
		want string
	}{
		{State{}, "Idle"},
		{State{Held: true}, "Armed"},
		{State{Held: true, Sent: true}, "Engaged"},
		{State{Cancelling: true}, "Cancelling"},
	}
	for _, tt := range tests {
		if got := tt.st.Phase(); got != tt.want {
			t.Errorf("%+v.Phase() = %s, want %s", tt.st, got, tt.want)
		}
	}
}
