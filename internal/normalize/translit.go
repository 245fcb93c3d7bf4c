package normalize

import "strings"

// Digraphs are resolved before single letters; longest match wins.
var translitDigraphs = []struct {
	latin    string
	cyrillic string
}{
	{"shch", "щ"},
	{"sch", "щ"},
	{"kh", "х"},
	{"zh", "ж"},
	{"ch", "ч"},
	{"sh", "ш"},
	{"ts", "ц"},
	{"yu", "ю"},
	{"ya", "я"},
	{"iu", "ю"},
	{"ia", "я"},
	{"yo", "ё"},
	{"ck", "к"},
}

var translitSingles = map[rune]string{
	'a': "а", 'b': "б", 'c': "к", 'd': "д", 'e': "е", 'f': "ф",
	'g': "г", 'h': "х", 'i': "и", 'j': "й", 'k': "к", 'l': "л",
	'm': "м", 'n': "н", 'o': "о", 'p': "п", 'q': "к", 'r': "р",
	's': "с", 't': "т", 'u': "у", 'v': "в", 'w': "в", 'x': "кс",
	'y': "ы", 'z': "з",
}

// Transliterate maps a Latin card-holder name to a best-effort Cyrillic
// rendering. Transliteration is lossy and many-to-one, so the result is
// only ever used as a fallback search aid, never as a primary match key.
func Transliterate(latin string) string {
	s := Name(latin)
	if s == "" {
		return ""
	}

	var b strings.Builder
	i := 0
	for i < len(s) {
		matched := false
		for _, d := range translitDigraphs {
			if strings.HasPrefix(s[i:], d.latin) {
				b.WriteString(d.cyrillic)
				i += len(d.latin)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		r := rune(s[i])
		if mapped, ok := translitSingles[r]; ok {
			b.WriteString(mapped)
		} else {
			// Non-ASCII bytes only appear when the input was already
			// Cyrillic; pass them through untouched.
			b.WriteByte(s[i])
		}
		i++
	}

	return b.String()
}
