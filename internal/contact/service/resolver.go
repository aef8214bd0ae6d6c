package service

import (
	"sort"

	"contactlink/internal/contact/models"
)

// Chain resolution is pure: these functions never touch the store, so the
// engine can call them before and after its writes with identical semantics.

// oldestFirst returns a copy of contacts sorted by creation time ascending,
// ties broken by smallest id. Creation timestamps can coincide within clock
// granularity, so the id tie-break is load-bearing.
func oldestFirst(contacts []*models.Contact) []*models.Contact {
	sorted := make([]*models.Contact, len(contacts))
	copy(sorted, contacts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// resolvePrimary returns the earliest-created primary in the set, or nil when
// the set holds only secondaries. The caller then falls back to the store via
// the secondaries' link targets.
func resolvePrimary(set []*models.Contact) *models.Contact {
	for _, c := range oldestFirst(set) {
		if c.IsPrimary() {
			return c
		}
	}
	return nil
}

// linkedIDs returns the distinct link targets of the secondaries in the set.
func linkedIDs(set []*models.Contact) []int64 {
	seen := make(map[int64]struct{}, len(set))
	var ids []int64
	for _, c := range set {
		if c.LinkedID == nil {
			continue
		}
		if _, ok := seen[*c.LinkedID]; !ok {
			seen[*c.LinkedID] = struct{}{}
			ids = append(ids, *c.LinkedID)
		}
	}
	return ids
}

// planMerge splits the distinct primaries in the set into the surviving
// primary (oldest) and the absorbed ones. A merge is needed whenever absorbed
// is non-empty, which happens precisely when a new interaction bridges two
// previously independent chains. All absorbed chains flatten directly onto
// the one survivor; no pairwise cascading.
func planMerge(set []*models.Contact) (survivor *models.Contact, absorbed []*models.Contact) {
	for _, c := range oldestFirst(set) {
		if !c.IsPrimary() {
			continue
		}
		if survivor == nil {
			survivor = c
			continue
		}
		absorbed = append(absorbed, c)
	}
	return survivor, absorbed
}

// needsNewContact decides whether the request carries information not already
// captured by the matching set.
//
// Policy, in order:
//  1. Some contact holds exactly this (email, phone) combination, absent
//     fields included: nothing new.
//  2. Both fields supplied: the combination is new, create a secondary. It is
//     the durable record proving two identities belong to one person.
//  3. Only email supplied: create only if no contact already has that email.
//  4. Only phone supplied: symmetric to (3).
//
// Rule 1 compares strictly: a contact matching only on email with no stored
// phone does not short-circuit a request that also carries a phone.
func needsNewContact(set []*models.Contact, email, phone *string) bool {
	for _, c := range set {
		if eqValue(c.Email, email) && eqValue(c.PhoneNumber, phone) {
			return false
		}
	}

	if email != nil && phone != nil {
		return true
	}
	if email != nil {
		for _, c := range set {
			if eqValue(c.Email, email) {
				return false
			}
		}
		return true
	}
	if phone != nil {
		for _, c := range set {
			if eqValue(c.PhoneNumber, phone) {
				return false
			}
		}
		return true
	}
	return false
}

// eqValue compares two optional fields; two absent values are equal.
func eqValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
