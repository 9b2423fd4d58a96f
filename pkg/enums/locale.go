package enums

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale is one of the fixed languages the marketplace ships content in.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleES Locale = "es"
	LocaleFR Locale = "fr"
	LocaleDE Locale = "de"
	LocaleIT Locale = "it"
	LocalePT Locale = "pt"
	LocaleRU Locale = "ru"
	LocaleTR Locale = "tr"
)

// FallbackLocale is used when a recipient has no usable locale.
const FallbackLocale = LocaleEN

var validLocales = []Locale{
	LocaleEN,
	LocaleES,
	LocaleFR,
	LocaleDE,
	LocaleIT,
	LocalePT,
	LocaleRU,
	LocaleTR,
}

// fallback first: the matcher returns its first tag on a miss.
var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Russian,
	language.Turkish,
})

// Locales returns the supported locales in canonical order.
func Locales() []Locale {
	out := make([]Locale, len(validLocales))
	copy(out, validLocales)
	return out
}

func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the locale is supported.
func (l Locale) IsValid() bool {
	return oneOf(l, validLocales)
}

// ParseLocale accepts only the exact supported codes.
func ParseLocale(value string) (Locale, error) {
	normalized := Locale(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid locale %q", value)
}

// MatchLocale maps a free-form language tag or Accept-Language header
// ("pt-BR", "de-CH,de;q=0.9") onto the closest supported locale.
func MatchLocale(raw string) Locale {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FallbackLocale
	}
	if exact, err := ParseLocale(raw); err == nil {
		return exact
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return FallbackLocale
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(validLocales) {
		return FallbackLocale
	}
	return validLocales[index]
}
