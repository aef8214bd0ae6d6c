package handler

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"contactlink/internal/contact/models"
	dErrors "contactlink/pkg/domain-errors"
)

// normalizeRequest validates and normalizes both fields in place: email is
// lowercased and trimmed, phone is reduced to digits only. Empty-after-trim
// fields are treated as absent. The engine never re-validates.
func (h *Handler) normalizeRequest(req *models.IdentifyRequest) error {
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			req.Email = nil
		} else {
			if err := h.validate.Var(email, "email"); err != nil {
				return dErrors.New(dErrors.CodeBadRequest, "invalid email address")
			}
			req.Email = &email
		}
	}

	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if phone == "" {
			req.PhoneNumber = nil
		} else {
			parsed, err := libphonenumber.Parse(phone, h.phoneRegion)
			if err != nil || !libphonenumber.IsValidNumber(parsed) {
				return dErrors.New(dErrors.CodeBadRequest, "invalid phone number")
			}
			digits := digitsOnly(phone)
			req.PhoneNumber = &digits
		}
	}

	if req.Email == nil && req.PhoneNumber == nil {
		return dErrors.New(dErrors.CodeBadRequest, "email or phoneNumber is required")
	}
	return nil
}

// digitsOnly strips everything but digits; "+1 (415) 555-2671" becomes
// "14155552671".
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
