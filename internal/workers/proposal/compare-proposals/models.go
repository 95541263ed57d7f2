// internal/workers/proposal/compare-proposals/models.go
package compareproposals

import "quote-workers/internal/proposal"

const (
	SortByCreated = "created"
	SortByScore   = "score"
	SortByCost    = "cost"
)

type Input struct {
	RequestID string `json:"requestId"`
	// OwnerID must own the request.
	OwnerID string `json:"ownerId"`
	SortBy  string `json:"sortBy,omitempty"`
}

type Output struct {
	RequestID string                      `json:"requestId"`
	Proposals []proposal.ComparedProposal `json:"proposals"`
	Summary   proposal.ComparisonSummary  `json:"summary"`
}
