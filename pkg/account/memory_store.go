package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

// MemoryStore is a Store kept in process memory, used in tests and local runs
// without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	profiles   map[uuid.UUID]Profile
	byCustomer map[string]uuid.UUID
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:   make(map[uuid.UUID]Profile),
		byCustomer: make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

// Put inserts or replaces a profile.
func (s *MemoryStore) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.profiles[p.AccountID] = p
	if p.CustomerID != "" {
		s.byCustomer[p.CustomerID] = p.AccountID
	}
}

func (s *MemoryStore) GetProfile(_ context.Context, accountID uuid.UUID) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetProfileByCustomerID(_ context.Context, customerID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCustomer[customerID]
	if !ok {
		return Profile{}, ErrCustomerNotMapped
	}
	return s.profiles[id], nil
}

func (s *MemoryStore) LinkCustomer(_ context.Context, accountID uuid.UUID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byCustomer[customerID]; ok && owner != accountID {
		return ErrCustomerConflict
	}
	p, ok := s.profiles[accountID]
	if !ok {
		p = Profile{AccountID: accountID, Tier: tier.Free, Status: StatusActive, CreatedAt: s.now()}
	}
	p.CustomerID = customerID
	p.UpdatedAt = s.now()
	s.profiles[accountID] = p
	s.byCustomer[customerID] = accountID
	return nil
}

func (s *MemoryStore) SaveSubscription(_ context.Context, accountID uuid.UUID, upd SubscriptionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[accountID]
	if !ok {
		return ErrNotFound
	}
	if upd.StaleFor(p) {
		return ErrStaleUpdate
	}
	if upd.SubscriptionID != "" {
		p.SubscriptionID = upd.SubscriptionID
	}
	if upd.PriceID != "" {
		p.PriceID = upd.PriceID
	}
	if upd.Tier != "" {
		p.Tier = upd.Tier
	}
	if upd.Status != "" {
		p.Status = upd.Status
	}
	if upd.OccurredAt.After(p.LastEventAt) {
		p.LastEventAt = upd.OccurredAt
	}
	p.UpdatedAt = s.now()
	s.profiles[accountID] = p
	return nil
}
