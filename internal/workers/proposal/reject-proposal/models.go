// internal/workers/proposal/reject-proposal/models.go
package rejectproposal

type Input struct {
	ProposalID string `json:"proposalId"`
	OwnerID    string `json:"ownerId"`
}

type Output struct {
	ProposalID string `json:"proposalId"`
	RequestID  string `json:"requestId"`
	CompanyID  string `json:"companyId"`
	Status     string `json:"proposalStatus"`
}
