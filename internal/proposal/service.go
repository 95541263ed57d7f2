package proposal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/models"
)

// ─── Inputs / results ────────────────────────────────────────────────────────

type SubmitInput struct {
	RequestID         string
	CompanyID         string
	EstimatedCost     *int64
	EstimatedDuration string
	Content           string
	Attachments       []string
}

type SelectInput struct {
	ProposalID string
	OwnerID    string
}

type RejectInput struct {
	ProposalID string
	OwnerID    string
}

// SelectResult carries the selected proposal and the ids of the siblings
// rejected in the same transaction.
type SelectResult struct {
	Proposal    *models.Proposal
	RejectedIDs []string
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service applies proposal transitions through a Store. Conflicts are
// returned to the caller, never retried here.
type Service struct {
	store  Store
	logger logger.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

func NewService(store Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log,
		tracer: noop.NewTracerProvider().Tracer("proposal"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a company's response to a request. The first submission
// creates the proposal as RESPONDED; later ones overwrite the submission while
// the proposal is still PENDING or RESPONDED.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Proposal, error) {
	if in.RequestID == "" || in.CompanyID == "" {
		return nil, errors.NewValidationError("requestId and companyId are required")
	}

	ctx, span := s.tracer.Start(ctx, "proposal.submit", trace.WithAttributes(
		attribute.String("request.id", in.RequestID),
		attribute.String("company.id", in.CompanyID),
	))
	defer span.End()

	var (
		result *models.Proposal
		from   models.ProposalStatus
	)

	err := s.store.WithTx(ctx, func(tx Tx) error {
		req, err := tx.GetRequestForUpdate(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if !req.Status.IsOpen() {
			return errors.NewStateConflictError(fmt.Sprintf("request %s is %s", req.ID, req.Status))
		}

		company, err := tx.GetCompany(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		if !company.IsVerified {
			return errors.NewForbiddenError(fmt.Sprintf("company %s is not verified", company.ID))
		}

		now := s.now()
		existing, err := tx.GetProposalByPairForUpdate(ctx, in.RequestID, in.CompanyID)
		if err != nil {
			return err
		}

		if existing == nil {
			p := &models.Proposal{
				ID:                s.newID(),
				RequestID:         in.RequestID,
				CompanyID:         in.CompanyID,
				EstimatedCost:     in.EstimatedCost,
				EstimatedDuration: in.EstimatedDuration,
				Content:           in.Content,
				Attachments:       in.Attachments,
				Status:            models.ProposalStatusResponded,
				RespondedAt:       &now,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			inserted, err := tx.InsertProposal(ctx, p)
			if err != nil {
				return err
			}
			if !inserted {
				return errors.NewStateConflictError("a proposal for this request and company was created concurrently")
			}
			result = p
			return nil
		}

		if !CanSubmit(existing.Status) {
			return errors.NewStateConflictError(fmt.Sprintf("proposal %s is %s", existing.ID, existing.Status))
		}

		from = existing.Status
		existing.EstimatedCost = in.EstimatedCost
		existing.EstimatedDuration = in.EstimatedDuration
		existing.Content = in.Content
		existing.Attachments = in.Attachments
		existing.Status = models.ProposalStatusResponded
		existing.RespondedAt = &now
		existing.UpdatedAt = now

		ok, err := tx.UpdateProposalSubmission(ctx, existing, from)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewStateConflictError(fmt.Sprintf("proposal %s changed concurrently", existing.ID))
		}
		result = existing
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "submit", err)
	}

	s.recordTransition(from, models.ProposalStatusResponded)
	s.logger.Info("proposal submitted", map[string]interface{}{
		"proposalId": result.ID,
		"requestId":  result.RequestID,
		"companyId":  result.CompanyID,
		"from":       string(from),
	})
	return result, nil
}

// Select accepts a RESPONDED proposal on behalf of the request owner. In one
// transaction it selects the proposal, rejects every other open proposal of
// the request and closes the request.
func (s *Service) Select(ctx context.Context, in SelectInput) (*SelectResult, error) {
	if in.ProposalID == "" || in.OwnerID == "" {
		return nil, errors.NewValidationError("proposalId and ownerId are required")
	}

	ctx, span := s.tracer.Start(ctx, "proposal.select", trace.WithAttributes(
		attribute.String("proposal.id", in.ProposalID),
	))
	defer span.End()

	var result SelectResult

	err := s.store.WithTx(ctx, func(tx Tx) error {
		p, req, err := s.lockForOwner(ctx, tx, in.ProposalID, in.OwnerID)
		if err != nil {
			return err
		}
		if p.Status != models.ProposalStatusResponded {
			return errors.NewStateConflictError(fmt.Sprintf("proposal %s is %s", p.ID, p.Status))
		}
		if !req.Status.IsOpen() {
			return errors.NewStateConflictError(fmt.Sprintf("request %s is %s", req.ID, req.Status))
		}

		now := s.now()
		ok, err := tx.UpdateProposalStatus(ctx, p.ID, models.ProposalStatusResponded, models.ProposalStatusSelected, now)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewStateConflictError(fmt.Sprintf("proposal %s changed concurrently", p.ID))
		}

		rejected, err := tx.RejectSiblings(ctx, req.ID, p.ID, now)
		if err != nil {
			return err
		}

		closed, err := tx.CloseRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if !closed {
			return errors.NewStateConflictError(fmt.Sprintf("request %s was closed concurrently", req.ID))
		}

		p.Status = models.ProposalStatusSelected
		p.SelectedAt = &now
		p.UpdatedAt = now
		result = SelectResult{Proposal: p, RejectedIDs: rejected}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "select", err)
	}

	s.recordTransition(models.ProposalStatusResponded, models.ProposalStatusSelected)
	if n := len(result.RejectedIDs); n > 0 {
		metrics.ProposalTransitions.WithLabelValues("SIBLING", string(models.ProposalStatusRejected)).Add(float64(n))
	}
	span.SetAttributes(attribute.Int("proposal.rejected_siblings", len(result.RejectedIDs)))
	s.logger.Info("proposal selected", map[string]interface{}{
		"proposalId":       result.Proposal.ID,
		"requestId":        result.Proposal.RequestID,
		"rejectedSiblings": len(result.RejectedIDs),
	})
	return &result, nil
}

// Reject declines a single RESPONDED proposal. Siblings are untouched.
func (s *Service) Reject(ctx context.Context, in RejectInput) (*models.Proposal, error) {
	if in.ProposalID == "" || in.OwnerID == "" {
		return nil, errors.NewValidationError("proposalId and ownerId are required")
	}

	ctx, span := s.tracer.Start(ctx, "proposal.reject", trace.WithAttributes(
		attribute.String("proposal.id", in.ProposalID),
	))
	defer span.End()

	var result *models.Proposal

	err := s.store.WithTx(ctx, func(tx Tx) error {
		p, _, err := s.lockForOwner(ctx, tx, in.ProposalID, in.OwnerID)
		if err != nil {
			return err
		}
		if !IsTransitionAllowed(p.Status, models.ProposalStatusRejected) {
			return errors.NewStateConflictError(fmt.Sprintf("proposal %s is %s", p.ID, p.Status))
		}

		now := s.now()
		ok, err := tx.UpdateProposalStatus(ctx, p.ID, p.Status, models.ProposalStatusRejected, now)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewStateConflictError(fmt.Sprintf("proposal %s changed concurrently", p.ID))
		}

		p.Status = models.ProposalStatusRejected
		p.UpdatedAt = now
		result = p
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "reject", err)
	}

	s.recordTransition(models.ProposalStatusResponded, models.ProposalStatusRejected)
	s.logger.Info("proposal rejected", map[string]interface{}{
		"proposalId": result.ID,
		"requestId":  result.RequestID,
	})
	return result, nil
}

// EnsurePending creates PENDING proposals for companies matched against an
// open request. Pairs that already have a proposal are left alone. It
// returns the ids of the companies that got a new proposal.
func (s *Service) EnsurePending(ctx context.Context, requestID string, companyIDs ...string) ([]string, error) {
	if requestID == "" {
		return nil, errors.NewValidationError("requestId is required")
	}

	ctx, span := s.tracer.Start(ctx, "proposal.ensure_pending", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.Int("company.count", len(companyIDs)),
	))
	defer span.End()

	created := make([]string, 0, len(companyIDs))

	err := s.store.WithTx(ctx, func(tx Tx) error {
		created = created[:0]

		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.IsOpen() {
			return errors.NewStateConflictError(fmt.Sprintf("request %s is %s", req.ID, req.Status))
		}

		now := s.now()
		for _, companyID := range companyIDs {
			inserted, err := tx.InsertProposal(ctx, &models.Proposal{
				ID:        s.newID(),
				RequestID: requestID,
				CompanyID: companyID,
				Status:    models.ProposalStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			if inserted {
				created = append(created, companyID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "ensure_pending", err)
	}

	s.logger.Debug("pending proposals ensured", map[string]interface{}{
		"requestId": requestID,
		"matched":   len(companyIDs),
		"created":   len(created),
	})
	return created, nil
}

// lockForOwner locks the parent request and then the proposal, and checks
// that ownerID owns the request.
func (s *Service) lockForOwner(ctx context.Context, tx Tx, proposalID, ownerID string) (*models.Proposal, *models.Request, error) {
	peek, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}

	req, err := tx.GetRequestForUpdate(ctx, peek.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if req.OwnerID != ownerID {
		return nil, nil, errors.NewForbiddenError(fmt.Sprintf("user %s does not own request %s", ownerID, req.ID))
	}

	p, err := tx.GetProposalForUpdate(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	return p, req, nil
}

func (s *Service) recordTransition(from, to models.ProposalStatus) {
	label := string(from)
	if label == "" {
		label = "NONE"
	}
	metrics.ProposalTransitions.WithLabelValues(label, string(to)).Inc()
}

func (s *Service) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.GetErrorCategory(errors.Normalize(err).Code) == "CONFLICT" {
		metrics.ProposalConflicts.WithLabelValues(op).Inc()
	}
	s.logger.Warn("proposal operation failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return err
}
