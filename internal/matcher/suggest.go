package matcher

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"payment-import-service/internal/normalize"
)

// Suggestion is a near-miss contact offered to the operator for an
// unmatched transaction.
type Suggestion struct {
	ContactID int64  `json:"contact_id"`
	Name      string `json:"name"`
	Distance  int    `json:"distance"`
}

// Suggest returns the closest contact names to an unmatched transaction's
// card-holder name, ordered by edit distance then name. It is a display
// aid only and never influences matching.
func (m *Matcher) Suggest(holderName string) []Suggestion {
	if m.config.SuggestionLimit == 0 {
		return nil
	}

	target := normalize.Name(holderName)
	if translit := normalize.Transliterate(holderName); translit != "" {
		// Compare in Cyrillic space when the holder name is Latin.
		target = translit
	}
	if target == "" {
		return nil
	}

	targetRunes := []rune(target)
	suggestions := make([]Suggestion, 0, m.config.SuggestionLimit)

	for _, entry := range m.index.names {
		distance := levenshtein.DistanceForStrings(targetRunes, []rune(entry.name), levenshtein.DefaultOptions)
		if distance > m.config.SuggestionMaxDistance {
			continue
		}
		contact := m.index.Contact(entry.contactID)
		if contact == nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			ContactID: entry.contactID,
			Name:      contact.Name,
			Distance:  distance,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		return suggestions[i].Name < suggestions[j].Name
	})

	if len(suggestions) > m.config.SuggestionLimit {
		suggestions = suggestions[:m.config.SuggestionLimit]
	}
	return suggestions
}
