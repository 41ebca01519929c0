package tray

import (
	"testing"

	"hyperkey/internal/i18n"
)

func TestStatusTitle(t *testing.T) {
	i18n.SetLanguage(i18n.EN)
	defer i18n.SetLanguage(i18n.RU)

	if got := (Status{Key: "CapsLock", Mode: "Hybrid"}).Title(); got != "Active: CapsLock (Hybrid)" {
		t.Fatalf("active title = %q", got)
	}
	if got := (Status{Key: "CapsLock", Mode: "Hybrid", Suspended: true}).Title(); got != "Suspended" {
		t.Fatalf("suspended title = %q", got)
	}
}

func TestIconsEmbedded(t *testing.T) {
	if len(iconActive) == 0 || len(iconSuspended) == 0 {
		t.Fatal("tray icons are empty")
	}
}
