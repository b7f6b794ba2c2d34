// Package locale resolves interaction locales and prints catalog messages.
package locale

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.English,
	language.Turkish,
}

var matcher = language.NewMatcher(supported)

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Localizer picks a printer for a user locale, falling back to a configured default.
type Localizer struct {
	fallback language.Tag
}

// New returns a Localizer whose fallback is the best supported match for def.
func New(def string) Localizer {
	tag, ok := match(def)
	if !ok {
		tag = language.English
	}
	return Localizer{fallback: tag}
}

// Default returns the fallback tag.
func (l Localizer) Default() language.Tag { return l.fallback }

// Tag returns the supported tag for a platform locale such as "en-US" or "tr".
func (l Localizer) Tag(userLocale string) language.Tag {
	if tag, ok := match(userLocale); ok {
		return tag
	}
	return l.fallback
}

// Printer returns a message printer for the user locale.
func (l Localizer) Printer(userLocale string) *message.Printer {
	return message.NewPrinter(l.Tag(userLocale))
}

// DefaultPrinter prints in the fallback locale, used for guild-wide posts.
func (l Localizer) DefaultPrinter() *message.Printer {
	return message.NewPrinter(l.fallback)
}

func match(raw string) (language.Tag, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.Und, false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}
