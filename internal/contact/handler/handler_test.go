package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactlink/internal/contact/models"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/testutil"
)

// stubService records the normalized arguments the handler passes down.
type stubService struct {
	gotEmail *string
	gotPhone *string
	resp     *models.IdentifyResponse
	err      error
}

func (s *stubService) Identify(_ context.Context, email, phone *string) (*models.IdentifyResponse, error) {
	s.gotEmail = email
	s.gotPhone = phone
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, "US")
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func okResponse(primaryID int64) *models.IdentifyResponse {
	return &models.IdentifyResponse{
		Contact: models.ConsolidatedContact{
			PrimaryContactID:    primaryID,
			Emails:              []string{"doc@hillvalley.edu"},
			PhoneNumbers:        []string{"14155552671"},
			SecondaryContactIDs: []int64{},
		},
	}
}

func TestHandleIdentifyNormalizesInput(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	email := "  Doc.Brown@HillValley.EDU "
	phone := "+1 (415) 555-2671"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{
		Email:       &email,
		PhoneNumber: &phone,
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	require.NotNil(t, svc.gotEmail)
	assert.Equal(t, "doc.brown@hillvalley.edu", *svc.gotEmail)
	require.NotNil(t, svc.gotPhone)
	assert.Equal(t, "14155552671", *svc.gotPhone)

	resp := testutil.UnmarshalResponse[models.IdentifyResponse](t, rr)
	assert.Equal(t, int64(1), resp.Contact.PrimaryContactID)
	assert.Equal(t, []int64{}, resp.Contact.SecondaryContactIDs)
}

func TestHandleIdentifyEmailOnly(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	email := "doc@hillvalley.edu"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{Email: &email})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	require.NotNil(t, svc.gotEmail)
	assert.Nil(t, svc.gotPhone)
}

func TestHandleIdentifyRejectsMissingFields(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "bad_request")
	assert.Nil(t, svc.gotEmail, "service must not be invoked on validation failure")
}

func TestHandleIdentifyRejectsBlankFields(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	blank := "   "
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{
		Email:       &blank,
		PhoneNumber: &blank,
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleIdentifyRejectsMalformedEmail(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	email := "not-an-email"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{Email: &email})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "bad_request")
}

func TestHandleIdentifyRejectsMalformedPhone(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	phone := "not-a-phone"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{PhoneNumber: &phone})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "bad_request")
}

func TestHandleIdentifyRejectsInvalidJSON(t *testing.T) {
	svc := &stubService{resp: okResponse(1)}
	router := newTestRouter(t, svc)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/identify", "{not json")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleIdentifyMapsIntegrityFailure(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeInvariantViolation, "orphaned secondary: link target is not a primary")}
	router := newTestRouter(t, svc)

	email := "doc@hillvalley.edu"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{Email: &email})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	testutil.AssertErrorCode(t, rr, "invariant_violation")
}

func TestHandleIdentifyMapsInternalError(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeInternal, "identify failed")}
	router := newTestRouter(t, svc)

	email := "doc@hillvalley.edu"
	req := testutil.NewJSONRequest(t, http.MethodPost, "/identify", models.IdentifyRequest{Email: &email})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	testutil.AssertErrorCode(t, rr, "internal")
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "14155552671", digitsOnly("+1 (415) 555-2671"))
	assert.Equal(t, "123456", digitsOnly("123456"))
	assert.Equal(t, "", digitsOnly("abc"))
}
