package proposal

import (
	"context"
	"time"

	"quote-workers/internal/models"
)

// Store runs proposal transitions atomically.
type Store interface {
	// WithTx runs fn inside one serializable transaction. A non-nil error from
	// fn rolls everything back; a commit failure is reported as a transaction
	// failure.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes available inside a transaction. Lock
// order is always request first, then proposals, so concurrent transitions on
// one request serialize on the request row.
type Tx interface {
	// GetRequestForUpdate returns errors.ErrRequestNotFound when id does not resolve.
	GetRequestForUpdate(ctx context.Context, id string) (*models.Request, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)

	// GetProposal reads without locking; used to discover the parent request.
	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
	GetProposalForUpdate(ctx context.Context, id string) (*models.Proposal, error)
	// GetProposalByPairForUpdate returns nil, nil when the pair has no proposal.
	GetProposalByPairForUpdate(ctx context.Context, requestID, companyID string) (*models.Proposal, error)

	// InsertProposal reports false when a proposal for the pair already exists.
	InsertProposal(ctx context.Context, p *models.Proposal) (bool, error)
	// UpdateProposalSubmission writes the submission fields, status,
	// responded_at and updated_at of p, only if the stored status is still expected.
	UpdateProposalSubmission(ctx context.Context, p *models.Proposal, expected models.ProposalStatus) (bool, error)
	// UpdateProposalStatus moves id from → to only if it is still in from.
	// selected_at is stamped when to is SELECTED.
	UpdateProposalStatus(ctx context.Context, id string, from, to models.ProposalStatus, at time.Time) (bool, error)
	// RejectSiblings moves every PENDING or RESPONDED proposal of requestID
	// other than exceptID to REJECTED and returns their ids.
	RejectSiblings(ctx context.Context, requestID, exceptID string, at time.Time) ([]string, error)
	// CloseRequest moves a PUBLISHED request to CLOSED; false if it was not PUBLISHED.
	CloseRequest(ctx context.Context, requestID string) (bool, error)
}
