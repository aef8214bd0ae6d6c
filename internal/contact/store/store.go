// Package store persists contacts. Two implementations share one contract:
// an in-memory store for unit tests and dev mode, and a Postgres store for
// production. Both exclude soft-deleted rows from every query and return
// sentinel errors (pkg/platform/sentinel) for infrastructure facts.
package store

import (
	"context"

	"contactlink/internal/contact/models"
)

// Store is the contract the reconciliation service depends on. All methods
// must be composable into one atomic unit of work per request; the Postgres
// implementation joins the ambient transaction carried in ctx.
type Store interface {
	// FindMatching returns all non-deleted contacts whose email equals email
	// or whose phone equals phone, ordered by creation time ascending (id as
	// the secondary order key). Nil inputs match nothing; if both are nil the
	// result is empty.
	FindMatching(ctx context.Context, email, phone *string) ([]*models.Contact, error)

	// FindPrimaryAmong returns the earliest-created primary whose id is in
	// ids, or sentinel.ErrNotFound when none of them is a primary.
	FindPrimaryAmong(ctx context.Context, ids []int64) (*models.Contact, error)

	// FindChain returns the primary with the given id plus every non-deleted
	// contact linked to it, ordered by creation time ascending.
	FindChain(ctx context.Context, primaryID int64) ([]*models.Contact, error)

	// Create persists a new contact, assigning ID and timestamps. Returns
	// sentinel.ErrConflict when an identical (email, phoneNumber) combination
	// already exists, which only happens under concurrent identify requests.
	Create(ctx context.Context, contact *models.Contact) error

	// Update rewrites a contact's precedence and link target. This is the
	// only mutation of those fields and occurs solely during chain merges.
	Update(ctx context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error

	// UpdateAllLinkedTo re-points every secondary of oldPrimaryID at
	// newPrimaryID, preserving the single-hop invariant during a merge.
	UpdateAllLinkedTo(ctx context.Context, oldPrimaryID, newPrimaryID int64) error
}
