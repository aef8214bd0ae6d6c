package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"contactlink/internal/contact/models"
	"contactlink/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemory(WithClock(func() time.Time { return s.now }))
}

func (s *InMemoryStoreSuite) create(email, phone string, precedence models.LinkPrecedence, linkedID *int64) *models.Contact {
	s.T().Helper()
	c := &models.Contact{LinkPrecedence: precedence, LinkedID: linkedID}
	if email != "" {
		c.Email = &email
	}
	if phone != "" {
		c.PhoneNumber = &phone
	}
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func ptr(id int64) *int64 { return &id }

func (s *InMemoryStoreSuite) TestCreateAssignsMonotonicIDs() {
	first := s.create("a@x.com", "", models.LinkPrecedencePrimary, nil)
	second := s.create("b@x.com", "", models.LinkPrecedencePrimary, nil)

	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
	s.Equal(s.now, first.CreatedAt)
}

func (s *InMemoryStoreSuite) TestCreateRejectsDuplicateCombination() {
	s.create("a@x.com", "111", models.LinkPrecedencePrimary, nil)

	dup := &models.Contact{
		Email:          func() *string { v := "a@x.com"; return &v }(),
		PhoneNumber:    func() *string { v := "111"; return &v }(),
		LinkPrecedence: models.LinkPrecedenceSecondary,
		LinkedID:       ptr(1),
	}
	s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestFindMatchingOrdering() {
	s.now = s.now.Add(2 * time.Second)
	s.create("late@x.com", "555", models.LinkPrecedencePrimary, nil) // id 1, created later in wall time
	s.now = s.now.Add(-2 * time.Second)
	s.create("early@x.com", "555", models.LinkPrecedencePrimary, nil) // id 2, created earlier

	matched, err := s.store.FindMatching(s.ctx, nil, func() *string { v := "555"; return &v }())
	s.Require().NoError(err)
	s.Require().Len(matched, 2)
	s.Equal(int64(2), matched[0].ID, "earliest created must come first")
	s.Equal(int64(1), matched[1].ID)
}

func (s *InMemoryStoreSuite) TestFindMatchingByEmailOrPhone() {
	s.create("a@x.com", "111", models.LinkPrecedencePrimary, nil)
	s.create("b@x.com", "222", models.LinkPrecedencePrimary, nil)
	s.create("c@x.com", "333", models.LinkPrecedencePrimary, nil)

	email := "a@x.com"
	phone := "222"
	matched, err := s.store.FindMatching(s.ctx, &email, &phone)
	s.Require().NoError(err)
	s.Len(matched, 2)

	matched, err = s.store.FindMatching(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Empty(matched)
}

func (s *InMemoryStoreSuite) TestSoftDeletedRowsAreFiltered() {
	s.create("a@x.com", "111", models.LinkPrecedencePrimary, nil)
	s.create("b@x.com", "111", models.LinkPrecedenceSecondary, ptr(1))
	s.store.MarkDeleted(2, s.now)

	email := "b@x.com"
	matched, err := s.store.FindMatching(s.ctx, &email, nil)
	s.Require().NoError(err)
	s.Empty(matched)

	chain, err := s.store.FindChain(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(chain, 1)
	s.Equal(int64(1), chain[0].ID)
}

func (s *InMemoryStoreSuite) TestFindPrimaryAmong() {
	s.now = s.now.Add(time.Second)
	s.create("a@x.com", "", models.LinkPrecedencePrimary, nil) // id 1
	s.now = s.now.Add(-time.Second)
	s.create("b@x.com", "", models.LinkPrecedencePrimary, nil)   // id 2, older
	s.create("c@x.com", "", models.LinkPrecedenceSecondary, ptr(1)) // id 3

	primary, err := s.store.FindPrimaryAmong(s.ctx, []int64{1, 2, 3})
	s.Require().NoError(err)
	s.Equal(int64(2), primary.ID, "earliest created primary wins")

	_, err = s.store.FindPrimaryAmong(s.ctx, []int64{3})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindPrimaryAmong(s.ctx, []int64{42})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindChainIncludesPrimaryAndSecondaries() {
	s.create("a@x.com", "111", models.LinkPrecedencePrimary, nil)
	s.now = s.now.Add(time.Second)
	s.create("b@x.com", "111", models.LinkPrecedenceSecondary, ptr(1))
	s.now = s.now.Add(time.Second)
	s.create("z@x.com", "999", models.LinkPrecedencePrimary, nil) // unrelated chain

	chain, err := s.store.FindChain(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(chain, 2)
	s.Equal(int64(1), chain[0].ID)
	s.Equal(int64(2), chain[1].ID)
}

func (s *InMemoryStoreSuite) TestUpdateRewritesPrecedenceAndLink() {
	s.create("a@x.com", "", models.LinkPrecedencePrimary, nil)
	s.create("b@x.com", "", models.LinkPrecedencePrimary, nil)

	s.Require().NoError(s.store.Update(s.ctx, 2, models.LinkPrecedenceSecondary, ptr(1)))

	chain, err := s.store.FindChain(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(chain, 2)
	s.Equal(models.LinkPrecedenceSecondary, chain[1].LinkPrecedence)

	s.Require().ErrorIs(s.store.Update(s.ctx, 42, models.LinkPrecedencePrimary, nil), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdateAllLinkedToRepointsOnlyMatching() {
	s.create("a@x.com", "", models.LinkPrecedencePrimary, nil)      // id 1
	s.create("b@x.com", "", models.LinkPrecedencePrimary, nil)      // id 2
	s.create("c@x.com", "", models.LinkPrecedenceSecondary, ptr(2)) // id 3
	s.create("d@x.com", "", models.LinkPrecedenceSecondary, ptr(2)) // id 4
	s.create("e@x.com", "", models.LinkPrecedenceSecondary, ptr(1)) // id 5, untouched

	s.Require().NoError(s.store.UpdateAllLinkedTo(s.ctx, 2, 1))

	chain, err := s.store.FindChain(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(chain, 4) // 1, 3, 4, 5

	for _, c := range chain[1:] {
		s.Require().NotNil(c.LinkedID)
		s.Equal(int64(1), *c.LinkedID)
	}
}

func (s *InMemoryStoreSuite) TestReturnedContactsAreCopies() {
	s.create("a@x.com", "111", models.LinkPrecedencePrimary, nil)

	email := "a@x.com"
	matched, err := s.store.FindMatching(s.ctx, &email, nil)
	s.Require().NoError(err)
	s.Require().Len(matched, 1)

	*matched[0].Email = "tampered@x.com"
	matched[0].LinkPrecedence = models.LinkPrecedenceSecondary

	again, err := s.store.FindMatching(s.ctx, &email, nil)
	s.Require().NoError(err)
	s.Require().Len(again, 1, "store state must be unaffected by caller mutation")
	s.Equal(models.LinkPrecedencePrimary, again[0].LinkPrecedence)
}
