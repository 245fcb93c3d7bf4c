package matcher

import (
	"payment-import-service/internal/models"
	"payment-import-service/internal/normalize"
)

// ContactIndex holds the lookup tables for one import session, built once
// from a snapshot of the contact and card-link tables. All keys are stored
// in normalized form so lookups are a single map access per key.
type ContactIndex struct {
	contacts map[int64]*models.Contact

	byExternalID map[string]int64
	byEmail      map[string]int64
	byPhone      map[string]int64
	byTelegram   map[string]int64
	byName       map[string]int64
	byCard       map[cardKey]int64

	// names carries every normalized contact name for the suggestion
	// scan; it is the only linear structure in the index.
	names []indexedName
}

type cardKey struct {
	last4  string
	holder string
}

type indexedName struct {
	name      string
	contactID int64
}

// BuildIndex constructs the session index from contact and card-link
// snapshots. On duplicate keys the first contact wins, matching the
// deterministic first-by-id ordering of the snapshot queries.
func BuildIndex(contacts []*models.Contact, links []*models.CardLink) *ContactIndex {
	idx := &ContactIndex{
		contacts:     make(map[int64]*models.Contact, len(contacts)),
		byExternalID: make(map[string]int64),
		byEmail:      make(map[string]int64),
		byPhone:      make(map[string]int64),
		byTelegram:   make(map[string]int64),
		byName:       make(map[string]int64),
		byCard:       make(map[cardKey]int64, len(links)),
	}

	for _, c := range contacts {
		idx.contacts[c.ID] = c

		if c.ExternalID != "" {
			idx.put(idx.byExternalID, c.ExternalID, c.ID)
		}
		for _, email := range c.AllEmails() {
			if key := normalize.Email(email); key != "" {
				idx.put(idx.byEmail, key, c.ID)
			}
		}
		for _, phone := range c.AllPhones() {
			if key := normalize.Phone(phone); key != "" {
				idx.put(idx.byPhone, key, c.ID)
			}
		}
		if key := normalize.Telegram(c.Telegram); key != "" {
			idx.put(idx.byTelegram, key, c.ID)
		}
		if key := normalize.Name(c.Name); key != "" {
			idx.put(idx.byName, key, c.ID)
			idx.names = append(idx.names, indexedName{name: key, contactID: c.ID})
		}
	}

	for _, link := range links {
		key := cardKey{last4: link.CardLast4, holder: normalize.Name(link.HolderName)}
		if key.last4 == "" || key.holder == "" {
			continue
		}
		if _, exists := idx.byCard[key]; !exists {
			idx.byCard[key] = link.ContactID
		}
	}

	return idx
}

func (idx *ContactIndex) put(table map[string]int64, key string, contactID int64) {
	if _, exists := table[key]; !exists {
		table[key] = contactID
	}
}

// Contact returns the indexed contact by id, or nil
func (idx *ContactIndex) Contact(id int64) *models.Contact {
	return idx.contacts[id]
}

// Size returns the number of indexed contacts
func (idx *ContactIndex) Size() int {
	return len(idx.contacts)
}
