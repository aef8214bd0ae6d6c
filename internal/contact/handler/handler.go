// Package handler is the thin HTTP layer over the reconciliation engine. It
// owns request validation and normalization; the engine assumes well-formed,
// normalized input.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"contactlink/internal/contact/models"
	"contactlink/internal/http/shared"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/requestcontext"
)

// Service is the reconciliation operation the handler delegates to.
type Service interface {
	Identify(ctx context.Context, email, phone *string) (*models.IdentifyResponse, error)
}

// Handler handles the identify endpoint.
type Handler struct {
	logger      *slog.Logger
	service     Service
	validate    *validator.Validate
	phoneRegion string
}

// New creates a contact Handler. phoneRegion is the default region for
// parsing phone numbers without a country prefix.
func New(service Service, logger *slog.Logger, phoneRegion string) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		validate:    validator.New(),
		phoneRegion: phoneRegion,
	}
}

// Register registers the contact routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identify", h.handleIdentify)
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid identify request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.normalizeRequest(&req); err != nil {
		h.logger.WarnContext(ctx, "identify request rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	resp, err := h.service.Identify(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "identify failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, resp)
}
