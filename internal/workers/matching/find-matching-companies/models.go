// internal/workers/matching/find-matching-companies/models.go
package findmatchingcompanies

import "quote-workers/internal/matching"

type Input struct {
	RequestID string            `json:"requestId"`
	Filters   *matching.Filters `json:"filters,omitempty"`
}

type Match struct {
	CompanyID   string              `json:"companyId"`
	CompanyName string              `json:"companyName"`
	MatchScore  matching.MatchScore `json:"matchScore"`
	MatchTier   matching.MatchTier  `json:"matchTier"`
}

type Output struct {
	RequestID      string   `json:"requestId"`
	Matches        []Match  `json:"matches"`
	MatchCount     int      `json:"matchCount"`
	CandidateCount int      `json:"candidateCount"`
	Source         string   `json:"candidateSource"`
	PendingCreated []string `json:"pendingCreated"`
}
