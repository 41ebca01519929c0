package notify

import (
	"strings"
	"testing"

	"hyperkey/internal/i18n"
)

type sent struct{ title, message string }

func capture(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	orig := send
	send = func(title, message string) error {
		got = append(got, sent{title, message})
		return nil
	}
	t.Cleanup(func() { send = orig })
	return &got
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	got := capture(t)
	n := New(false)
	n.Suspended()
	n.ConfigError("bad json")
	if len(*got) != 0 {
		t.Fatalf("sent %v while disabled", *got)
	}

	n.SetEnabled(true)
	n.Resumed()
	if len(*got) != 1 || !n.Enabled() {
		t.Fatalf("sent %v after enabling", *got)
	}
}

func TestTitleAndTruncation(t *testing.T) {
	i18n.SetLanguage(i18n.EN)
	defer i18n.SetLanguage(i18n.RU)

	got := capture(t)
	n := New(true)
	n.ConfigError(strings.Repeat("я", 150))
	n.Ready("CapsLock")

	if len(*got) != 2 {
		t.Fatalf("sent %d notifications", len(*got))
	}
	first := (*got)[0]
	if first.title != "Hyper Key: Config file error" {
		t.Fatalf("title = %q", first.title)
	}
	if want := strings.Repeat("я", 100) + "..."; first.message != want {
		t.Fatalf("message not truncated by runes: %d bytes", len(first.message))
	}
	if (*got)[1].title != "Hyper Key" || (*got)[1].message != "Running, hyper key: CapsLock" {
		t.Fatalf("ready = %+v", (*got)[1])
	}
}
