package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-import-service/internal/models"
	"payment-import-service/pkg/errors"
)

// MemoryStore is an in-memory Store used by tests and dry runs. It
// enforces the same uniqueness rules the database schema does.
type MemoryStore struct {
	mu sync.RWMutex

	contacts  []*models.Contact
	cardLinks []*models.CardLink
	staging   map[string]*models.StagingRecord
	ledger    map[string]*models.FinalizedRecord
	overrides map[string]*models.StatusOverride
	batches   map[uuid.UUID]*models.ImportBatch
	mappings  []*models.OrderMapping
	orders    []*models.Order

	nextID int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		staging:   make(map[string]*models.StagingRecord),
		ledger:    make(map[string]*models.FinalizedRecord),
		overrides: make(map[string]*models.StatusOverride),
		batches:   make(map[uuid.UUID]*models.ImportBatch),
		nextID:    1,
	}
}

func recordKey(provider, uid string) string {
	return provider + "/" + uid
}

func (s *MemoryStore) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }

// SeedContacts loads the contact snapshot
func (s *MemoryStore) SeedContacts(contacts ...*models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, contacts...)
}

// SeedCardLinks loads the card-link snapshot
func (s *MemoryStore) SeedCardLinks(links ...*models.CardLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardLinks = append(s.cardLinks, links...)
}

// SeedLedger loads finalized records
func (s *MemoryStore) SeedLedger(records ...*models.FinalizedRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == 0 {
			r.ID = s.allocID()
		}
		s.ledger[recordKey(r.Provider, r.UID)] = r
	}
}

// SeedStaging loads staging records
func (s *MemoryStore) SeedStaging(records ...*models.StagingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == 0 {
			r.ID = s.allocID()
		}
		s.staging[recordKey(r.Provider, r.UID)] = r
	}
}

// SeedOrderMappings loads description-to-product mappings
func (s *MemoryStore) SeedOrderMappings(mappings ...*models.OrderMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = append(s.mappings, mappings...)
}

// ListContacts implements ContactStore
func (s *MemoryStore) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Contact(nil), s.contacts...), nil
}

// ListCardLinks implements CardLinkStore
func (s *MemoryStore) ListCardLinks(ctx context.Context) ([]*models.CardLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.CardLink(nil), s.cardLinks...), nil
}

// SaveCardLink implements CardLinkStore
func (s *MemoryStore) SaveCardLink(ctx context.Context, link *models.CardLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cardLinks {
		if existing.CardLast4 == link.CardLast4 && existing.HolderName == link.HolderName {
			existing.ContactID = link.ContactID
			existing.UpdatedAt = time.Now()
			return nil
		}
	}
	if link.ID == 0 {
		link.ID = s.allocID()
	}
	s.cardLinks = append(s.cardLinks, link)
	return nil
}

// GetStagingByUIDs implements StagingStore
func (s *MemoryStore) GetStagingByUIDs(ctx context.Context, provider string, uids []string) ([]*models.StagingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.StagingRecord
	for _, page := range pages(uids) {
		for _, uid := range page {
			if r, ok := s.staging[recordKey(provider, uid)]; ok {
				copied := *r
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

// InsertStaging implements StagingStore
func (s *MemoryStore) InsertStaging(ctx context.Context, record *models.StagingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(record.Provider, record.UID)
	if _, exists := s.staging[key]; exists {
		return errors.StoreError(errors.CodeWriteFailed, "insert_staging",
			fmt.Errorf("duplicate staging record for %s", key))
	}
	if record.ID == 0 {
		record.ID = s.allocID()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	copied := *record
	s.staging[key] = &copied
	return nil
}

// UpdateStaging implements StagingStore
func (s *MemoryStore) UpdateStaging(ctx context.Context, record *models.StagingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(record.Provider, record.UID)
	if _, exists := s.staging[key]; !exists {
		return errors.StoreError(errors.CodeNotFound, "update_staging",
			fmt.Errorf("no staging record for %s", key))
	}
	record.UpdatedAt = time.Now()
	copied := *record
	s.staging[key] = &copied
	return nil
}

// DeleteStagingByBatch implements StagingStore
func (s *MemoryStore) DeleteStagingByBatch(ctx context.Context, batchID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, r := range s.staging {
		if r.BatchID == batchID {
			delete(s.staging, key)
			deleted++
		}
	}
	return deleted, nil
}

// GetLedgerByUIDs implements LedgerStore
func (s *MemoryStore) GetLedgerByUIDs(ctx context.Context, provider string, uids []string) ([]*models.FinalizedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FinalizedRecord
	for _, page := range pages(uids) {
		for _, uid := range page {
			if r, ok := s.ledger[recordKey(provider, uid)]; ok {
				copied := *r
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

// UpsertOverride implements OverrideStore
func (s *MemoryStore) UpsertOverride(ctx context.Context, override *models.StatusOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(override.Provider, override.UID)
	if existing, ok := s.overrides[key]; ok {
		existing.ProposedStatus = override.ProposedStatus
		existing.Justification = override.Justification
		existing.UpdatedAt = time.Now()
		return nil
	}
	if override.ID == 0 {
		override.ID = s.allocID()
	}
	override.CreatedAt = time.Now()
	override.UpdatedAt = override.CreatedAt
	copied := *override
	s.overrides[key] = &copied
	return nil
}

// GetOverride implements OverrideStore
func (s *MemoryStore) GetOverride(ctx context.Context, provider, uid string) (*models.StatusOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.overrides[recordKey(provider, uid)]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

// CreateBatch implements BatchStore
func (s *MemoryStore) CreateBatch(ctx context.Context, batch *models.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; exists {
		return errors.StoreError(errors.CodeWriteFailed, "create_batch",
			fmt.Errorf("duplicate batch %s", batch.ID))
	}
	batch.CreatedAt = time.Now()
	copied := *batch
	s.batches[batch.ID] = &copied
	return nil
}

// UpdateBatch implements BatchStore
func (s *MemoryStore) UpdateBatch(ctx context.Context, batch *models.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; !exists {
		return errors.StoreError(errors.CodeNotFound, "update_batch",
			fmt.Errorf("no batch %s", batch.ID))
	}
	copied := *batch
	s.batches[batch.ID] = &copied
	return nil
}

// GetBatch implements BatchStore
func (s *MemoryStore) GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.batches[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, nil
}

// FindOrderMapping implements OrderStore
func (s *MemoryStore) FindOrderMapping(ctx context.Context, description string) (*models.OrderMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.Active && m.Description == description {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

// CreateOrder implements OrderStore
func (s *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.StagingRecordID == order.StagingRecordID {
			return errors.StoreError(errors.CodeWriteFailed, "create_order",
				fmt.Errorf("order already exists for staging record %d", order.StagingRecordID))
		}
	}
	if order.ID == 0 {
		order.ID = s.allocID()
	}
	order.CreatedAt = time.Now()
	copied := *order
	s.orders = append(s.orders, &copied)
	return nil
}

// Orders returns the created orders. Test helper.
func (s *MemoryStore) Orders() []*models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Order(nil), s.orders...)
}

// StagingCount returns the number of staging rows. Test helper.
func (s *MemoryStore) StagingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.staging)
}
