package types

import (
	"strings"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// LocaleText holds one piece of free text translated into several locales.
type LocaleText map[enums.Locale]string

// Normalize trims entries and drops blank or unsupported locales.
// It returns nil when nothing remains.
func (t LocaleText) Normalize() LocaleText {
	if len(t) == 0 {
		return nil
	}
	out := make(LocaleText, len(t))
	for locale, text := range t {
		text = strings.TrimSpace(text)
		if text == "" || !locale.IsValid() {
			continue
		}
		out[locale] = text
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Get returns the text for locale, falling back to Canonical.
func (t LocaleText) Get(locale enums.Locale) string {
	if text := strings.TrimSpace(t[locale]); text != "" {
		return text
	}
	return t.Canonical()
}

// Canonical picks the fallback locale entry, else the first non-empty entry in
// canonical locale order.
func (t LocaleText) Canonical() string {
	if text := strings.TrimSpace(t[enums.FallbackLocale]); text != "" {
		return text
	}
	for _, locale := range enums.Locales() {
		if text := strings.TrimSpace(t[locale]); text != "" {
			return text
		}
	}
	return ""
}
