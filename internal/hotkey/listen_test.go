package hotkey

import (
	"sync/atomic"
	"testing"
	"time"

	"golang.design/x/hotkey"
)

func TestListenDrainsKeyup(t *testing.T) {
	var presses atomic.Int32
	h := New(func() { presses.Add(1) })

	keydown := make(chan hotkey.Event)
	keyup := make(chan hotkey.Event)
	stopCh := make(chan struct{})
	done := make(chan struct{})
	go func() {
		h.listen(keydown, keyup, stopCh)
		close(done)
	}()

	send := func(ch chan hotkey.Event) {
		t.Helper()
		select {
		case ch <- hotkey.Event{}:
		case <-time.After(time.Second):
			t.Fatal("listener does not read the channel")
		}
	}

	send(keydown)
	for range 5 {
		send(keyup)
	}
	// повтор в пределах debounce не считается
	send(keydown)

	close(stopCh)
	<-done
	if got := presses.Load(); got != 1 {
		t.Fatalf("presses = %d, want 1", got)
	}
}

func TestListenStopsOnClosedChannel(t *testing.T) {
	h := New(nil)
	keyup := make(chan hotkey.Event)
	close(keyup)

	done := make(chan struct{})
	go func() {
		h.listen(make(chan hotkey.Event), keyup, make(chan struct{}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener kept running after keyup closed")
	}
}
