package service

import (
	"sort"

	"contactlink/internal/contact/models"
	dErrors "contactlink/pkg/domain-errors"
	strs "contactlink/pkg/platform/strings"
)

// consolidate builds the merged view of one chain. The chain arrives in
// creation order from the store; the primary's values are listed first, then
// each secondary's in creation order, deduplicated with empties skipped.
// Secondary ids are sorted numerically, not by creation order, which differs
// after merges.
func consolidate(chain []*models.Contact) (*models.IdentifyResponse, error) {
	var primary *models.Contact
	for _, c := range chain {
		if c.IsPrimary() {
			primary = c
			break
		}
	}
	if primary == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "chain has no primary contact")
	}

	emails := []string{primary.EmailValue()}
	phones := []string{primary.PhoneValue()}
	secondaryIDs := []int64{}

	for _, c := range chain {
		if c.ID == primary.ID {
			continue
		}
		emails = append(emails, c.EmailValue())
		phones = append(phones, c.PhoneValue())
		secondaryIDs = append(secondaryIDs, c.ID)
	}

	sort.Slice(secondaryIDs, func(i, j int) bool { return secondaryIDs[i] < secondaryIDs[j] })

	return &models.IdentifyResponse{
		Contact: models.ConsolidatedContact{
			PrimaryContactID:    primary.ID,
			Emails:              strs.Dedupe(emails),
			PhoneNumbers:        strs.Dedupe(phones),
			SecondaryContactIDs: secondaryIDs,
		},
	}, nil
}
