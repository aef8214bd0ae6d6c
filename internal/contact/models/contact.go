package models

import "time"

// LinkPrecedence is the two-value precedence state of a contact within its
// chain. Using a typed enum rather than a free string keeps the single-hop
// invariant checkable: only secondaries carry a LinkedID, and it always points
// at a primary.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

// Valid reports whether p is one of the two known precedence values.
func (p LinkPrecedence) Valid() bool {
	return p == LinkPrecedencePrimary || p == LinkPrecedenceSecondary
}

// Contact is the sole persisted entity.
//
// Invariants:
//   - Every non-deleted contact belongs to exactly one chain with exactly one
//     primary member.
//   - LinkedID is set if and only if LinkPrecedence is secondary, and points
//     directly at the chain's primary (never at another secondary).
//   - The primary is the earliest-created member of its chain (ties broken by
//     smallest ID).
//   - Email and PhoneNumber are immutable after creation; only precedence and
//     link target mutate, and only during a chain merge.
type Contact struct {
	ID             int64
	Email          *string
	PhoneNumber    *string
	LinkedID       *int64
	LinkPrecedence LinkPrecedence
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// IsPrimary reports whether the contact heads its chain.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// IsDeleted reports whether the contact is soft-deleted. Deleted contacts are
// invisible to matching, chain resolution and response assembly.
func (c *Contact) IsDeleted() bool {
	return c.DeletedAt != nil
}

// EmailValue returns the email or the empty string when absent.
func (c *Contact) EmailValue() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}

// PhoneValue returns the phone number or the empty string when absent.
func (c *Contact) PhoneValue() string {
	if c.PhoneNumber == nil {
		return ""
	}
	return *c.PhoneNumber
}
