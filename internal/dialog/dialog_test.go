package dialog

import (
	"testing"

	"hyperkey/internal/keys"
)

func TestKeyOptions(t *testing.T) {
	options, def := keyOptions(keys.Capital)
	if def != "CapsLock" {
		t.Fatalf("default = %q", def)
	}
	if len(options) != len(keys.Candidates()) {
		t.Fatalf("got %d options", len(options))
	}

	// код вне списка добавляется, чтобы его можно было оставить
	options, def = keyOptions(keys.Code(0xE8))
	if def != "0xE8" || options[len(options)-1] != "0xE8" {
		t.Fatalf("unlisted key: default %q, last %q", def, options[len(options)-1])
	}
}

func TestResolveRoundTrip(t *testing.T) {
	options, _ := keyOptions(keys.Code(0xE8))
	for _, name := range options {
		code, err := resolve(name)
		if err != nil {
			t.Fatalf("resolve(%q): %v", name, err)
		}
		if keys.Name(code) != name {
			t.Fatalf("resolve(%q) = %s", name, code)
		}
	}
	if _, err := resolve("NoSuchKey"); err == nil {
		t.Fatal("unknown name should fail")
	}
}
