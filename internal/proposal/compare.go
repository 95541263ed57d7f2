package proposal

import (
	"quote-workers/internal/matching"
	"quote-workers/internal/models"
)

// ComparedProposal is a proposal annotated with a live match score for the
// comparison view. MatchScore is nil when the company could not be scored.
type ComparedProposal struct {
	Proposal   models.Proposal      `json:"proposal"`
	MatchScore *matching.MatchScore `json:"matchScore,omitempty"`
	MatchTier  *matching.MatchTier  `json:"matchTier,omitempty"`
}

type ComparisonSummary struct {
	Count        int     `json:"count"`
	AverageCost  float64 `json:"averageCost"`
	MinCost      int64   `json:"minCost"`
	MaxCost      int64   `json:"maxCost"`
	AverageScore float64 `json:"averageScore"`
}

// Annotate scores every non-PENDING proposal against request using the
// company found in companies. Order is preserved.
func Annotate(proposals []models.Proposal, companies map[string]models.Company, request models.Request) []ComparedProposal {
	out := make([]ComparedProposal, 0, len(proposals))
	for _, p := range proposals {
		if p.Status == models.ProposalStatusPending {
			continue
		}
		cp := ComparedProposal{Proposal: p}
		if company, ok := companies[p.CompanyID]; ok {
			score := matching.CalculateMatchScore(company, request, nil)
			tier := matching.GetMatchTier(score.Total)
			cp.MatchScore = &score
			cp.MatchTier = &tier
		}
		out = append(out, cp)
	}
	return out
}

// Summarize aggregates cost and score over non-PENDING proposals. Proposals
// without a cost or score are left out of that aggregate; an empty input
// yields all zeros.
func Summarize(proposals []ComparedProposal) ComparisonSummary {
	var (
		summary    ComparisonSummary
		costSum    int64
		costCount  int
		scoreSum   int
		scoreCount int
	)

	for _, cp := range proposals {
		if cp.Proposal.Status == models.ProposalStatusPending {
			continue
		}
		summary.Count++

		if cost := cp.Proposal.EstimatedCost; cost != nil {
			if costCount == 0 || *cost < summary.MinCost {
				summary.MinCost = *cost
			}
			if costCount == 0 || *cost > summary.MaxCost {
				summary.MaxCost = *cost
			}
			costSum += *cost
			costCount++
		}
		if cp.MatchScore != nil {
			scoreSum += cp.MatchScore.Total
			scoreCount++
		}
	}

	if costCount > 0 {
		summary.AverageCost = float64(costSum) / float64(costCount)
	}
	if scoreCount > 0 {
		summary.AverageScore = float64(scoreSum) / float64(scoreCount)
	}
	return summary
}
