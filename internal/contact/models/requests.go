package models

// IdentifyRequest is the inbound payload for POST /identify. At least one of
// the two fields must be present; the handler validates and normalizes both
// before the reconciliation engine runs.
type IdentifyRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

// ConsolidatedContact is the merged view of one identity chain.
type ConsolidatedContact struct {
	PrimaryContactID    int64    `json:"primaryContactId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}

// IdentifyResponse wraps the consolidated contact in the envelope callers
// expect.
type IdentifyResponse struct {
	Contact ConsolidatedContact `json:"contact"`
}
