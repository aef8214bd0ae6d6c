package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"contactlink/internal/contact/models"
	"contactlink/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded Store for unit tests and dev mode. IDs are
// assigned monotonically; the clock is injectable so tests can control
// creation order.
type InMemory struct {
	mu       sync.RWMutex
	contacts map[int64]*models.Contact
	nextID   int64
	clock    func() time.Time
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the timestamp source used for new contacts.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		contacts: make(map[int64]*models.Contact),
		nextID:   1,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) FindMatching(_ context.Context, email, phone *string) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Contact
	for _, c := range s.contacts {
		if c.IsDeleted() {
			continue
		}
		emailMatch := email != nil && c.Email != nil && *c.Email == *email
		phoneMatch := phone != nil && c.PhoneNumber != nil && *c.PhoneNumber == *phone
		if emailMatch || phoneMatch {
			matched = append(matched, copyContact(c))
		}
	}

	sortByCreation(matched)
	return matched, nil
}

func (s *InMemory) FindPrimaryAmong(_ context.Context, ids []int64) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*models.Contact
	for _, id := range ids {
		c, ok := s.contacts[id]
		if !ok || c.IsDeleted() || !c.IsPrimary() {
			continue
		}
		candidates = append(candidates, copyContact(c))
	}
	if len(candidates) == 0 {
		return nil, sentinel.ErrNotFound
	}

	sortByCreation(candidates)
	return candidates[0], nil
}

func (s *InMemory) FindChain(_ context.Context, primaryID int64) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []*models.Contact
	for _, c := range s.contacts {
		if c.IsDeleted() {
			continue
		}
		if c.ID == primaryID || (c.LinkedID != nil && *c.LinkedID == primaryID) {
			chain = append(chain, copyContact(c))
		}
	}

	sortByCreation(chain)
	return chain, nil
}

func (s *InMemory) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirror the partial unique index the Postgres schema enforces on the
	// (email, phone_number) combination.
	for _, existing := range s.contacts {
		if existing.IsDeleted() {
			continue
		}
		if existing.EmailValue() == contact.EmailValue() && existing.PhoneValue() == contact.PhoneValue() {
			return sentinel.ErrConflict
		}
	}

	now := s.clock()
	contact.ID = s.nextID
	s.nextID++
	contact.CreatedAt = now
	contact.UpdatedAt = now
	s.contacts[contact.ID] = copyContact(contact)
	return nil
}

func (s *InMemory) Update(_ context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok || c.IsDeleted() {
		return sentinel.ErrNotFound
	}

	c.LinkPrecedence = precedence
	c.LinkedID = copyID(linkedID)
	c.UpdatedAt = s.clock()
	return nil
}

func (s *InMemory) UpdateAllLinkedTo(_ context.Context, oldPrimaryID, newPrimaryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for _, c := range s.contacts {
		if c.IsDeleted() || c.LinkedID == nil || *c.LinkedID != oldPrimaryID {
			continue
		}
		target := newPrimaryID
		c.LinkedID = &target
		c.UpdatedAt = now
	}
	return nil
}

// MarkDeleted soft-deletes a contact. Deletion is externally managed and not
// part of the Store contract; this hook exists so tests can exercise the
// soft-delete filter.
func (s *InMemory) MarkDeleted(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.contacts[id]; ok {
		c.DeletedAt = &at
	}
}

// All returns every contact including soft-deleted ones, ordered by creation.
// Test helper for invariant assertions.
func (s *InMemory) All() []*models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, copyContact(c))
	}
	sortByCreation(out)
	return out
}

func sortByCreation(contacts []*models.Contact) {
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID < contacts[j].ID
		}
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
}

func copyContact(c *models.Contact) *models.Contact {
	dup := *c
	dup.Email = copyStr(c.Email)
	dup.PhoneNumber = copyStr(c.PhoneNumber)
	dup.LinkedID = copyID(c.LinkedID)
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		dup.DeletedAt = &t
	}
	return &dup
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
