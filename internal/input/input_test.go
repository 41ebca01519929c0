package input

import (
	"errors"
	"reflect"
	"testing"

	"hyperkey/internal/keys"
)

type recordingSender struct {
	batches [][]Stroke
	err     error
}

func (r *recordingSender) Send(s []Stroke) error {
	r.batches = append(r.batches, append([]Stroke(nil), s...))
	return r.err
}

func TestChordOrder(t *testing.T) {
	want4 := []keys.Code{keys.LControl, keys.LWin, keys.LMenu, keys.LShift}
	want3 := []keys.Code{keys.LControl, keys.LMenu, keys.LShift}
	if got := Chord(false); !reflect.DeepEqual(got, want4) {
		t.Fatalf("Chord(false) = %v", got)
	}
	if got := Chord(true); !reflect.DeepEqual(got, want3) {
		t.Fatalf("Chord(true) = %v", got)
	}
	for _, k := range append(want4, want3...) {
		if !keys.IsModifier(k) {
			t.Fatalf("chord key %s is not a modifier", k)
		}
	}
}

func TestEmitChordSingleBatch(t *testing.T) {
	rec := &recordingSender{}
	e := NewEmitter(rec)

	if err := e.EmitChord(false, true); err != nil {
		t.Fatal(err)
	}
	if err := e.EmitChord(false, false); err != nil {
		t.Fatal(err)
	}
	if len(rec.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(rec.batches))
	}
	for i, down := range []bool{true, false} {
		b := rec.batches[i]
		if len(b) != 4 {
			t.Fatalf("batch %d has %d strokes, want 4", i, len(b))
		}
		for _, s := range b {
			if s.Down != down {
				t.Fatalf("batch %d mixes directions: %+v", i, b)
			}
		}
	}
}

func TestEmitChordLatch(t *testing.T) {
	rec := &recordingSender{}
	e := NewEmitter(rec)

	e.EmitChord(false, true)
	e.EmitChord(false, true)
	if !e.ChordDown() {
		t.Fatal("chord should be down")
	}
	e.EmitChord(false, false)
	e.EmitChord(false, false)
	if e.ChordDown() {
		t.Fatal("chord should be up")
	}
	if len(rec.batches) != 2 {
		t.Fatalf("latch let through %d batches, want 2", len(rec.batches))
	}
}

func TestReleaseUsesPressedVariant(t *testing.T) {
	rec := &recordingSender{}
	e := NewEmitter(rec)

	e.EmitChord(false, true)
	e.EmitChord(true, false)

	release := rec.batches[1]
	if len(release) != 4 {
		t.Fatalf("released %d keys, want the 4 that were pressed", len(release))
	}
}

func TestReleaseChordForced(t *testing.T) {
	rec := &recordingSender{}
	e := NewEmitter(rec)

	if err := e.ReleaseChord(true); err != nil {
		t.Fatal(err)
	}
	if len(rec.batches) != 1 || len(rec.batches[0]) != 3 {
		t.Fatalf("forced release: %+v", rec.batches)
	}

	e.EmitChord(false, true)
	e.ReleaseChord(true)
	if got := len(rec.batches[2]); got != 4 {
		t.Fatalf("forced release after 4-key press released %d keys", got)
	}
	if e.ChordDown() {
		t.Fatal("chord still latched after ReleaseChord")
	}
}

func TestEmitPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEmitter(&recordingSender{err: boom})
	if err := e.Emit(keys.Capital, true); !errors.Is(err, boom) {
		t.Fatalf("Emit error = %v", err)
	}
	if err := e.EmitChord(false, true); !errors.Is(err, boom) {
		t.Fatalf("EmitChord error = %v", err)
	}
}
