package matcher

import (
	"payment-import-service/internal/models"
	"payment-import-service/internal/normalize"
	"payment-import-service/pkg/errors"
	"payment-import-service/pkg/logger"
)

// Matcher resolves transactions against a session's ContactIndex
type Matcher struct {
	config *MatcherConfig
	index  *ContactIndex
	logger logger.Logger
}

// MatchStats summarizes one matching pass
type MatchStats struct {
	Total     int
	Matched   int
	Unmatched int
	ByMethod  map[models.MatchMethod]int
}

// NewMatcher creates a matcher over a prebuilt contact index. A nil
// config uses the defaults.
func NewMatcher(index *ContactIndex, config *MatcherConfig) (*Matcher, error) {
	if config == nil {
		config = DefaultMatcherConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "matcher", nil, err)
	}
	if index == nil {
		return nil, errors.New(errors.CategoryMatch, errors.CodeIndexNotLoaded, "contact index is not loaded")
	}

	return &Matcher{
		config: config.Clone(),
		index:  index,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}, nil
}

// MatchAll resolves every transaction in place and returns the pass
// statistics. Transactions no key resolves get MatchByNone and, when name
// matching is enabled, operator suggestions.
func (m *Matcher) MatchAll(transactions []*models.Transaction) *MatchStats {
	stats := &MatchStats{ByMethod: make(map[models.MatchMethod]int)}

	for _, tx := range transactions {
		m.Match(tx)
		stats.Total++
		stats.ByMethod[tx.MatchedBy]++
		if tx.IsMatched() {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
	}

	m.logger.WithFields(logger.Fields{
		"total":     stats.Total,
		"matched":   stats.Matched,
		"unmatched": stats.Unmatched,
	}).Info("Contact matching completed")

	return stats
}

// Match resolves a single transaction in place. Keys are tried in fixed
// priority order; the first hit wins and is recorded in MatchedBy.
func (m *Matcher) Match(tx *models.Transaction) {
	if id, ok := m.matchExternalID(tx); ok {
		m.resolve(tx, id, models.MatchByExternalID)
		return
	}
	if id, ok := m.matchEmails(tx); ok {
		m.resolve(tx, id, models.MatchByEmail)
		return
	}
	if id, ok := m.matchPhones(tx); ok {
		m.resolve(tx, id, models.MatchByPhone)
		return
	}
	if id, ok := m.matchCard(tx); ok {
		m.resolve(tx, id, models.MatchByCard)
		return
	}
	if id, ok := m.matchTelegram(tx); ok {
		m.resolve(tx, id, models.MatchByTelegram)
		return
	}

	if m.config.EnableNameMatching {
		if id, ok := m.matchName(tx); ok {
			m.resolve(tx, id, models.MatchByName)
			return
		}
		if id, ok := m.matchTranslitName(tx); ok {
			m.resolve(tx, id, models.MatchByTranslit)
			return
		}
	}

	tx.MatchedBy = models.MatchByNone
	tx.MatchedContactID = 0
	tx.MatchedContactName = ""
}

func (m *Matcher) resolve(tx *models.Transaction, contactID int64, method models.MatchMethod) {
	tx.MatchedContactID = contactID
	tx.MatchedBy = method
	if contact := m.index.Contact(contactID); contact != nil {
		tx.MatchedContactName = contact.Name
	}
}

func (m *Matcher) matchExternalID(tx *models.Transaction) (int64, bool) {
	if tx.TrackingID == "" {
		return 0, false
	}
	id, ok := m.index.byExternalID[tx.TrackingID]
	return id, ok
}

func (m *Matcher) matchEmails(tx *models.Transaction) (int64, bool) {
	for _, email := range tx.Emails {
		if id, ok := m.index.byEmail[email]; ok {
			return id, true
		}
	}
	return 0, false
}

func (m *Matcher) matchPhones(tx *models.Transaction) (int64, bool) {
	for _, phone := range tx.Phones {
		if id, ok := m.index.byPhone[phone]; ok {
			return id, true
		}
	}
	return 0, false
}

func (m *Matcher) matchCard(tx *models.Transaction) (int64, bool) {
	if tx.CardLast4 == "" || tx.CardHolder == "" {
		return 0, false
	}
	key := cardKey{last4: tx.CardLast4, holder: normalize.Name(tx.CardHolder)}
	id, ok := m.index.byCard[key]
	return id, ok
}

func (m *Matcher) matchTelegram(tx *models.Transaction) (int64, bool) {
	if tx.Telegram == "" {
		return 0, false
	}
	id, ok := m.index.byTelegram[tx.Telegram]
	return id, ok
}

func (m *Matcher) matchName(tx *models.Transaction) (int64, bool) {
	key := normalize.Name(tx.CardHolder)
	if key == "" {
		return 0, false
	}
	id, ok := m.index.byName[key]
	return id, ok
}

// matchTranslitName retries the name lookup after transliterating a Latin
// card-holder name to Cyrillic, catching contacts stored under their
// Cyrillic names.
func (m *Matcher) matchTranslitName(tx *models.Transaction) (int64, bool) {
	key := normalize.Transliterate(tx.CardHolder)
	if key == "" || key == normalize.Name(tx.CardHolder) {
		return 0, false
	}
	id, ok := m.index.byName[key]
	return id, ok
}
