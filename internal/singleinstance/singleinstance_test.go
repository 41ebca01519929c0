package singleinstance

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ivan", "ivan"},
		{`DOMAIN\user.name`, "DOMAIN_user_name"},
		{"", "default"},
		{"a b", "a_b"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultName(t *testing.T) {
	t.Setenv("USERNAME", `CORP\op`)
	if got := DefaultName(); got != "hyper-key-CORP_op" {
		t.Fatalf("DefaultName = %q", got)
	}
	t.Setenv("USERNAME", "")
	t.Setenv("USER", "op")
	if got := DefaultName(); !strings.HasPrefix(got, "hyper-key-op") {
		t.Fatalf("DefaultName = %q", got)
	}
}

func TestLockName(t *testing.T) {
	tests := []struct {
		in, want string
		err      error
	}{
		{"hyper-key-op", "hyper-key-op", nil},
		{`hyper-key-CORP\op`, "hyper-key-CORP_op", nil},
		{" spaced ", "spaced", nil},
		{"../etc", "___etc", nil},
		{"", "", errEmptyName},
		{"   ", "", errEmptyName},
	}
	for _, tt := range tests {
		got, err := lockName(tt.in)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("lockName(%q) = %q, %v; want %q, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}
