// Package normalize canonicalizes raw identity fields from provider
// exports into comparable keys. All functions are pure and never return
// errors; unusable input degrades to an empty string so row parsing is
// never aborted by a malformed identity field.
package normalize

import (
	"strings"
	"unicode"
)

// Belarusian mobile operator prefixes used to expand 9-digit local
// numbers to their full country-coded form.
var mobilePrefixes = map[string]bool{
	"25": true,
	"29": true,
	"33": true,
	"44": true,
}

// Phone reduces a phone number to a bare digit string: separators are
// stripped, the CIS trunk "8" is rewritten to a country prefix, and known
// 9-digit local mobile numbers are expanded with the 375 country code.
// Phone is idempotent: Phone(Phone(x)) == Phone(x).
func Phone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()

	switch {
	case len(s) == 11 && strings.HasPrefix(s, "80"):
		// Belarus trunk prefix: 80 29 123-45-67 -> local 291234567.
		s = s[2:]
	case len(s) == 11 && s[0] == '8':
		// Russian trunk prefix: 8 912... -> 7 912...
		s = "7" + s[1:]
	}

	if len(s) == 9 && mobilePrefixes[s[:2]] {
		s = "375" + s
	}

	return s
}

// Email lowercases and trims an email address. Returns "" for empty input.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Name lowercases a person name and strips everything that is not a
// letter, collapsing whitespace runs to single spaces. Letter
// classification is unicode-aware so Cyrillic names survive intact.
func Name(raw string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Telegram cleans a Telegram handle: the leading "@" is stripped and the
// result lowercased. Handles embedding a URL scheme or outside the [5,32]
// length bound are rejected with the empty-string sentinel; an invalid
// handle must not abort row parsing.
func Telegram(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		return ""
	}
	s = strings.TrimPrefix(s, "@")
	if len(s) < 5 || len(s) > 32 {
		return ""
	}
	return strings.ToLower(s)
}

// SplitValues splits a multi-value export cell on commas, semicolons and
// whitespace.
func SplitValues(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
}

// SplitPhones splits a multi-value phone cell on commas and semicolons
// only; spaces inside a single number are formatting, not separators.
func SplitPhones(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
}
