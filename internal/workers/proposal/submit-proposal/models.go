// internal/workers/proposal/submit-proposal/models.go
package submitproposal

import "time"

type Input struct {
	RequestID         string   `json:"requestId"`
	CompanyID         string   `json:"companyId"`
	EstimatedCost     *int64   `json:"estimatedCost,omitempty"`
	EstimatedDuration string   `json:"estimatedDuration,omitempty"`
	Content           string   `json:"content,omitempty"`
	Attachments       []string `json:"attachments,omitempty"`
}

type Output struct {
	ProposalID  string     `json:"proposalId"`
	RequestID   string     `json:"requestId"`
	CompanyID   string     `json:"companyId"`
	Status      string     `json:"proposalStatus"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}
