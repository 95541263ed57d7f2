// internal/models/proposal.go
package models

import (
	"fmt"
	"time"
)

// ProposalStatus mirrors the proposal_status enum in PostgreSQL.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "PENDING"
	ProposalStatusResponded ProposalStatus = "RESPONDED"
	ProposalStatusSelected  ProposalStatus = "SELECTED"
	ProposalStatusRejected  ProposalStatus = "REJECTED"
)

func ParseProposalStatus(s string) (ProposalStatus, error) {
	st := ProposalStatus(s)
	switch st {
	case ProposalStatusPending, ProposalStatusResponded, ProposalStatusSelected, ProposalStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown proposal status %q", s)
}

// Proposal is a company's response to a request. At most one proposal exists
// per (RequestID, CompanyID) pair.
type Proposal struct {
	ID                string         `json:"id"`
	RequestID         string         `json:"requestId"`
	CompanyID         string         `json:"companyId"`
	EstimatedCost     *int64         `json:"estimatedCost,omitempty"`
	EstimatedDuration string         `json:"estimatedDuration,omitempty"`
	Content           string         `json:"content,omitempty"`
	Attachments       []string       `json:"attachments,omitempty"`
	Status            ProposalStatus `json:"status"`
	RespondedAt       *time.Time     `json:"respondedAt,omitempty"`
	SelectedAt        *time.Time     `json:"selectedAt,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}
