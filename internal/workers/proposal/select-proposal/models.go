// internal/workers/proposal/select-proposal/models.go
package selectproposal

import "time"

type Input struct {
	ProposalID string `json:"proposalId"`
	OwnerID    string `json:"ownerId"`
}

// Output feeds the notification fan-out: one decision notification for the
// selected company and one per rejected sibling.
type Output struct {
	SelectedProposalID  string     `json:"selectedProposalId"`
	RequestID           string     `json:"requestId"`
	CompanyID           string     `json:"companyId"`
	SelectedAt          *time.Time `json:"selectedAt,omitempty"`
	RejectedProposalIDs []string   `json:"rejectedProposalIds"`
	RequestStatus       string     `json:"requestStatus"`
}
