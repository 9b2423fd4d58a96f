package types

import (
	"testing"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

func TestLocaleTextCanonicalPrefersFallback(t *testing.T) {
	text := LocaleText{enums.LocaleES: "lluvia", enums.LocaleEN: "rain"}
	if got := text.Canonical(); got != "rain" {
		t.Fatalf("expected fallback text, got %q", got)
	}

	text = LocaleText{enums.LocaleTR: "yagmur", enums.LocaleDE: "Regen"}
	if got := text.Canonical(); got != "Regen" {
		t.Fatalf("expected first locale in canonical order, got %q", got)
	}

	if got := (LocaleText{}).Canonical(); got != "" {
		t.Fatalf("expected empty canonical text, got %q", got)
	}
}

func TestLocaleTextGetFallsBack(t *testing.T) {
	text := LocaleText{enums.LocaleEN: "wind", enums.LocaleFR: "vent"}
	if got := text.Get(enums.LocaleFR); got != "vent" {
		t.Fatalf("expected localized text, got %q", got)
	}
	if got := text.Get(enums.LocaleRU); got != "wind" {
		t.Fatalf("expected fallback text, got %q", got)
	}
}

func TestLocaleTextNormalize(t *testing.T) {
	text := LocaleText{enums.LocaleEN: "  wind ", enums.LocaleES: "   ", enums.Locale("xx"): "nope"}
	normalized := text.Normalize()
	if len(normalized) != 1 || normalized[enums.LocaleEN] != "wind" {
		t.Fatalf("unexpected normalized text %v", normalized)
	}
	if (LocaleText{enums.LocaleES: " "}).Normalize() != nil {
		t.Fatal("expected nil for blank text")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" VIP", "vip", "", "group ", "Birthday"})
	want := []string{"birthday", "group", "vip"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
}
