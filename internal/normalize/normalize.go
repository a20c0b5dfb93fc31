// Package normalize cleans raw inbound text and phone identifiers.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var greetings = toSet(
	"oi", "oie", "ola", "opa", "e ai", "eai", "salve", "hey", "hello", "hi",
	"bom dia", "boa tarde", "boa noite", "tudo bem",
	"oi bom dia", "oi boa tarde", "oi boa noite", "oi tudo bem",
	"ola bom dia", "ola boa tarde", "ola boa noite", "ola tudo bem",
)

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Phone reduces a transport address ("5511999999999@s.whatsapp.net",
// "+55 (11) 99999-9999", "5511999999999:12@s.whatsapp.net") to its digits.
func Phone(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.IndexByte(address, '@'); i >= 0 {
		address = address[:i]
	}
	if i := strings.IndexByte(address, ':'); i >= 0 {
		address = address[:i]
	}
	var b strings.Builder
	b.Grow(len(address))
	for _, r := range address {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Text trims surrounding whitespace and collapses internal runs of spaces.
func Text(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// StripDiacritics removes combining marks ("não" -> "nao").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases, trims and strips diacritics. It is the form every
// keyword comparison runs on.
func Fold(s string) string {
	return StripDiacritics(strings.ToLower(Text(s)))
}

// IsGreeting reports whether the message is nothing but a greeting.
func IsGreeting(text string) bool {
	folded := strings.TrimFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	folded = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, folded)
	_, ok := greetings[Text(folded)]
	return ok
}

// LooksLikeCommand reports whether the text uses slash command syntax.
func LooksLikeCommand(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "/") || strings.HasPrefix(t, "./")
}
