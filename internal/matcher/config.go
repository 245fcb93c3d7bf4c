// Package matcher resolves parsed transactions to CRM contacts through a
// fixed-priority cascade of identity keys. The cascade is deterministic:
// a stronger key always wins over a weaker one, and a transaction that no
// key resolves stays unmatched rather than guessing.
package matcher

import "fmt"

// MatcherConfig configures the identity matching behavior
type MatcherConfig struct {
	// EnableNameMatching allows the weak name and transliterated-name
	// fallbacks after every strong key failed.
	EnableNameMatching bool

	// SuggestionLimit caps the operator suggestions produced for an
	// unmatched transaction.
	SuggestionLimit int

	// SuggestionMaxDistance is the maximum edit distance a contact name
	// may have from the transaction's name to be suggested.
	SuggestionMaxDistance int
}

// DefaultMatcherConfig returns the default matching configuration
func DefaultMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		EnableNameMatching:    true,
		SuggestionLimit:       3,
		SuggestionMaxDistance: 3,
	}
}

// Validate validates the matcher configuration
func (c *MatcherConfig) Validate() error {
	if c.SuggestionLimit < 0 {
		return fmt.Errorf("suggestion limit cannot be negative, got %d", c.SuggestionLimit)
	}
	if c.SuggestionMaxDistance < 0 {
		return fmt.Errorf("suggestion max distance cannot be negative, got %d", c.SuggestionMaxDistance)
	}
	return nil
}

// Clone returns a copy of the configuration
func (c *MatcherConfig) Clone() *MatcherConfig {
	clone := *c
	return &clone
}
