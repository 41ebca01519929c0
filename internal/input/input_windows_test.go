//go:build windows

package input

import (
	"testing"
	"unsafe"

	"hyperkey/internal/keys"
)

func TestInputLayout(t *testing.T) {
	want := uintptr(28)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		want = 40
	}
	if got := unsafe.Sizeof(input{}); got != want {
		t.Fatalf("sizeof(INPUT) = %d, want %d", got, want)
	}
}

func TestFlagsFor(t *testing.T) {
	tests := []struct {
		s    Stroke
		want uint32
	}{
		{Stroke{Key: 'A', Down: true}, 0},
		{Stroke{Key: 'A', Down: false}, keyEventFKeyUp},
		{Stroke{Key: keys.Left, Down: true}, keyEventFExtendedKey},
		{Stroke{Key: keys.RMenu, Down: false}, keyEventFExtendedKey | keyEventFKeyUp},
		{Stroke{Key: keys.LMenu, Down: true}, 0},
	}
	for _, tt := range tests {
		if got := flagsFor(tt.s); got != tt.want {
			t.Errorf("flagsFor(%+v) = %#x, want %#x", tt.s, got, tt.want)
		}
	}
}
