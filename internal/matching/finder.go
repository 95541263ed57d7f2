package matching

import (
	"sort"

	"quote-workers/internal/models"
)

// Filters are optional hard filters applied before scoring. Companies that
// do not accept new projects are always excluded.
type Filters struct {
	VerifiedOnly bool     `json:"verifiedOnly,omitempty"`
	MinRating    *float64 `json:"minRating,omitempty"`
}

type CompanyMatch struct {
	Company    models.Company `json:"company"`
	MatchScore MatchScore     `json:"matchScore"`
}

// FindMatchingCompanies filters, scores and ranks companies for request.
// Results below cfg.MinScore are dropped, the rest are sorted by total
// descending and truncated to cfg.MaxResults. Equal totals keep the order in
// which the companies were supplied.
func FindMatchingCompanies(companies []models.Company, request models.Request, filters *Filters, cfg *Config) []CompanyMatch {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	matches := make([]CompanyMatch, 0, len(companies))
	for _, company := range companies {
		if !passesHardFilters(company, filters) {
			continue
		}
		score := CalculateMatchScore(company, request, cfg)
		if score.Total < cfg.MinScore {
			continue
		}
		matches = append(matches, CompanyMatch{Company: company, MatchScore: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore.Total > matches[j].MatchScore.Total
	})

	if limit := cfg.maxResults(); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func passesHardFilters(company models.Company, filters *Filters) bool {
	if !company.AcceptsNewProjects {
		return false
	}
	if filters == nil {
		return true
	}
	if filters.VerifiedOnly && !company.IsVerified {
		return false
	}
	if filters.MinRating != nil && company.AverageRating < *filters.MinRating {
		return false
	}
	return true
}
