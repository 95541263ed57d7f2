// internal/workers/matching/calculate-match-score/models.go
package calculatematchscore

import (
	"quote-workers/internal/matching"
	"quote-workers/internal/models"
)

// Input names the pair to score by id. Company and Request may be passed
// inline instead, in which case they win over the ids.
type Input struct {
	RequestID string          `json:"requestId,omitempty"`
	CompanyID string          `json:"companyId,omitempty"`
	Company   *models.Company `json:"company,omitempty"`
	Request   *models.Request `json:"request,omitempty"`
}

type Output struct {
	RequestID  string              `json:"requestId"`
	CompanyID  string              `json:"companyId"`
	MatchScore matching.MatchScore `json:"matchScore"`
	MatchTier  matching.MatchTier  `json:"matchTier"`
}
