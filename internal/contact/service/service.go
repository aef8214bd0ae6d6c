// Package service implements the reconciliation engine: given a normalized
// (email, phone) pair it decides between creating a primary, creating a
// secondary, merging chains, or doing nothing, then produces the consolidated
// view of the resulting chain.
package service

import (
	"context"
	"errors"
	"log/slog"

	"contactlink/internal/contact/models"
	"contactlink/internal/platform/metrics"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/platform/sentinel"
	"contactlink/pkg/requestcontext"
)

// Store is the slice of the contact store the engine consumes.
type Store interface {
	FindMatching(ctx context.Context, email, phone *string) ([]*models.Contact, error)
	FindPrimaryAmong(ctx context.Context, ids []int64) (*models.Contact, error)
	FindChain(ctx context.Context, primaryID int64) ([]*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error
	UpdateAllLinkedTo(ctx context.Context, oldPrimaryID, newPrimaryID int64) error
}

// maxTxAttempts bounds conflict retries. Conflicts only arise from concurrent
// requests touching the same chain, so one or two retries resolve them.
const maxTxAttempts = 3

// Service orchestrates identity reconciliation. It is stateless and
// reentrant; all shared state lives in the store.
type Service struct {
	contacts Store
	tx       StoreTx
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the transaction runner. Postgres deployments pass the SQL
// runner; the default serializes requests in-process, which is what the
// in-memory store needs.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// NewService constructs the reconciliation engine over a contact store.
func NewService(contacts Store, opts ...Option) *Service {
	s := &Service{
		contacts: contacts,
		tx:       newInProcessTx(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identify runs one reconciliation request. Input is assumed normalized
// (email lowercased and trimmed, phone digits-only); at least one field must
// be present. The whole read-decide-write sequence plus the final chain read
// executes as one atomic unit against the store, retried on conflict.
func (s *Service) Identify(ctx context.Context, email, phone *string) (*models.IdentifyResponse, error) {
	if email == nil && phone == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email or phoneNumber is required")
	}

	var resp *models.IdentifyResponse
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			primary, reconcileErr := s.reconcile(txCtx, email, phone)
			if reconcileErr != nil {
				return reconcileErr
			}

			chain, chainErr := s.contacts.FindChain(txCtx, primary.ID)
			if chainErr != nil {
				return dErrors.Wrap(chainErr, dErrors.CodeInternal, "failed to read chain")
			}
			resp, reconcileErr = consolidate(chain)
			return reconcileErr
		})
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		s.metrics.IncTxRetry()
		s.logger.WarnContext(ctx, "identify conflict, retrying",
			"request_id", requestcontext.RequestID(ctx),
			"attempt", attempt,
		)
	}

	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "concurrent chain mutation, retries exhausted")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return nil, err
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identify failed")
}

// reconcile executes the decision tree against the matching set and returns
// the chain's primary after any writes.
func (s *Service) reconcile(ctx context.Context, email, phone *string) (*models.Contact, error) {
	matching, err := s.contacts.FindMatching(ctx, email, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query matching contacts")
	}

	if len(matching) == 0 {
		return s.createContact(ctx, email, phone, models.LinkPrecedencePrimary, nil)
	}

	primary, err := s.resolveChainPrimary(ctx, matching)
	if err != nil {
		return nil, err
	}

	if _, absorbed := planMerge(matching); len(absorbed) > 0 {
		if err := s.mergeChains(ctx, primary, absorbed); err != nil {
			return nil, err
		}
	}

	if needsNewContact(matching, email, phone) {
		if _, err := s.createContact(ctx, email, phone, models.LinkPrecedenceSecondary, &primary.ID); err != nil {
			return nil, err
		}
	}

	return primary, nil
}

// resolveChainPrimary finds the authoritative primary for the matching set.
// When the set holds only secondaries, their link targets are resolved
// through the store; a secondary whose target is no primary means the data
// violated the chain invariants at some earlier point, which is fatal for the
// request and never retried.
func (s *Service) resolveChainPrimary(ctx context.Context, matching []*models.Contact) (*models.Contact, error) {
	if primary := resolvePrimary(matching); primary != nil {
		return primary, nil
	}

	ids := linkedIDs(matching)
	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "secondary contact without link target")
	}

	primary, err := s.contacts.FindPrimaryAmong(ctx, ids)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "orphaned secondary: link target is not a primary")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve primary")
	}
	return primary, nil
}

// mergeChains demotes each absorbed primary under the survivor and re-points
// its secondaries, flattening every absorbed chain onto the survivor in one
// hop.
func (s *Service) mergeChains(ctx context.Context, survivor *models.Contact, absorbed []*models.Contact) error {
	for _, a := range absorbed {
		if err := s.contacts.Update(ctx, a.ID, models.LinkPrecedenceSecondary, &survivor.ID); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to demote primary")
		}
		if err := s.contacts.UpdateAllLinkedTo(ctx, a.ID, survivor.ID); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-point secondaries")
		}
		s.metrics.IncChainMerge()
		s.logger.InfoContext(ctx, "chain merged",
			"request_id", requestcontext.RequestID(ctx),
			"surviving_primary", survivor.ID,
			"absorbed_primary", a.ID,
		)
	}
	return nil
}

func (s *Service) createContact(ctx context.Context, email, phone *string, precedence models.LinkPrecedence, linkedID *int64) (*models.Contact, error) {
	contact := &models.Contact{
		Email:          email,
		PhoneNumber:    phone,
		LinkedID:       linkedID,
		LinkPrecedence: precedence,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact")
	}

	s.metrics.IncContactCreated(string(precedence))
	s.logger.InfoContext(ctx, "contact created",
		"request_id", requestcontext.RequestID(ctx),
		"contact_id", contact.ID,
		"precedence", string(precedence),
	)
	return contact, nil
}
