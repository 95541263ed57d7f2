// Package matching scores development companies against a project request
// and ranks them. Every function here is pure and safe for concurrent use.
package matching

import (
	"math"
	"strings"

	"quote-workers/internal/models"
)

const (
	MaxTechStackScore = 40
	MaxSpecialtyScore = 30
	MaxBudgetScore    = 20
	MaxRatingScore    = 10

	primarySpecialtyPoints   = 15
	secondarySpecialtyPoints = 15
	defaultSpecialtyCredit   = 10

	neutralBudgetScore = 15
	neutralRatingScore = 5

	lowBudgetMidpoint  = 100_000
	highBudgetMidpoint = 10_000_000
	lowBudgetFloor     = 8
)

type BudgetCompatibility string

const (
	BudgetPerfect    BudgetCompatibility = "perfect"
	BudgetGood       BudgetCompatibility = "good"
	BudgetAcceptable BudgetCompatibility = "acceptable"
	BudgetMismatch   BudgetCompatibility = "mismatch"
)

// MatchScore is the computed compatibility between one company and one
// request. Total is always the sum of the four sub-scores.
type MatchScore struct {
	Total               int                 `json:"total"`
	TechStackScore      int                 `json:"techStackScore"`
	SpecialtyScore      int                 `json:"specialtyScore"`
	BudgetScore         int                 `json:"budgetScore"`
	RatingScore         int                 `json:"ratingScore"`
	MatchedTechStacks   []string            `json:"matchedTechStacks"`
	MatchedSpecialties  []string            `json:"matchedSpecialties"`
	BudgetCompatibility BudgetCompatibility `json:"budgetCompatibility"`
}

// TechStackScore returns round(jaccard × 40) over the lowercased stack sets,
// and the requested names (original casing) that the company covers.
func TechStackScore(companyStacks, requestedStacks []string) (int, []string) {
	if len(requestedStacks) == 0 {
		return MaxTechStackScore, []string{}
	}
	if len(companyStacks) == 0 {
		return 0, []string{}
	}

	company := make(map[string]struct{}, len(companyStacks))
	union := make(map[string]struct{}, len(companyStacks)+len(requestedStacks))
	for _, s := range companyStacks {
		key := strings.ToLower(s)
		company[key] = struct{}{}
		union[key] = struct{}{}
	}

	matched := []string{}
	intersection := make(map[string]struct{})
	for _, s := range requestedStacks {
		key := strings.ToLower(s)
		union[key] = struct{}{}
		if _, ok := company[key]; !ok {
			continue
		}
		if _, dup := intersection[key]; dup {
			continue
		}
		intersection[key] = struct{}{}
		matched = append(matched, s)
	}

	similarity := float64(len(intersection)) / float64(len(union))
	return int(math.Round(similarity * MaxTechStackScore)), matched
}

// SpecialtyScore awards up to 15 points when a company specialty contains one
// of the project type's keywords, and up to 15 more for coverage of the
// requested specialties (a flat 10 when none were requested). Capped at 30.
func SpecialtyScore(companySpecialties []string, projectType models.ProjectType, requestedSpecialties []string) (int, []string) {
	// Blank names would substring-match everything.
	lowered := make([]string, 0, len(companySpecialties))
	for _, s := range companySpecialties {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	if len(lowered) == 0 {
		return 0, []string{}
	}

	matched := newLabelSet()

	primary := 0
	for _, kw := range projectTypeKeywords[projectType] {
		for _, sp := range lowered {
			if strings.Contains(sp, kw) {
				matched.add(kw)
				primary = primarySpecialtyPoints
				break
			}
		}
	}

	secondary := defaultSpecialtyCredit
	if len(requestedSpecialties) > 0 {
		hits := 0
		for _, req := range requestedSpecialties {
			r := strings.ToLower(strings.TrimSpace(req))
			if r == "" {
				continue
			}
			for _, sp := range lowered {
				if strings.Contains(sp, r) || strings.Contains(r, sp) {
					hits++
					matched.add(req)
					break
				}
			}
		}
		ratio := float64(hits) / float64(len(requestedSpecialties))
		secondary = int(math.Round(ratio * secondarySpecialtyPoints))
	}

	return min(primary+secondary, MaxSpecialtyScore), matched.labels
}

// BudgetScore rates how workable a budget range is. Narrow-but-not-too-narrow
// ranges score best; missing bounds are neutral.
func BudgetScore(budgetMin, budgetMax *int64) (int, BudgetCompatibility) {
	if budgetMin == nil || budgetMax == nil {
		return neutralBudgetScore, BudgetAcceptable
	}

	midpoint := float64(*budgetMin+*budgetMax) / 2
	if midpoint <= 0 {
		return neutralBudgetScore, BudgetAcceptable
	}
	rangeRatio := float64(*budgetMax-*budgetMin) / midpoint

	var score int
	var compat BudgetCompatibility
	switch {
	case rangeRatio < 0.2:
		score, compat = 12, BudgetGood
	case rangeRatio < 0.5:
		score, compat = 18, BudgetPerfect
	case rangeRatio < 1.0:
		score, compat = 15, BudgetGood
	default:
		score, compat = 10, BudgetAcceptable
	}

	switch {
	case midpoint < lowBudgetMidpoint:
		score = max(score-2, lowBudgetFloor)
	case midpoint > highBudgetMidpoint:
		score = min(score+2, MaxBudgetScore)
	}

	return score, compat
}

// RatingScore maps the average rating onto 0-8 and adds a review-volume bonus.
// Unreviewed companies get a neutral 5.
func RatingScore(averageRating float64, reviewCount int) int {
	if reviewCount == 0 {
		return neutralRatingScore
	}

	base := averageRating / 5 * 8

	var bonus float64
	switch {
	case reviewCount >= 50:
		bonus = 2
	case reviewCount >= 20:
		bonus = 1.5
	case reviewCount >= 10:
		bonus = 1
	case reviewCount >= 5:
		bonus = 0.5
	}

	return min(int(math.Round(base+bonus)), MaxRatingScore)
}

// CalculateMatchScore combines the four sub-scores for company against
// request. The weight fields of cfg are not applied: each sub-score already
// has a fixed maximum (40/30/20/10).
func CalculateMatchScore(company models.Company, request models.Request, _ *Config) MatchScore {
	techScore, matchedStacks := TechStackScore(company.TechStacks, request.RequestedTechStacks())
	specialtyScore, matchedSpecialties := SpecialtyScore(company.Specialties, request.ProjectType, request.RequestedSpecialties())
	budgetScore, compat := BudgetScore(request.BudgetMin, request.BudgetMax)
	ratingScore := RatingScore(company.AverageRating, company.ReviewCount)

	return MatchScore{
		Total:               techScore + specialtyScore + budgetScore + ratingScore,
		TechStackScore:      techScore,
		SpecialtyScore:      specialtyScore,
		BudgetScore:         budgetScore,
		RatingScore:         ratingScore,
		MatchedTechStacks:   matchedStacks,
		MatchedSpecialties:  matchedSpecialties,
		BudgetCompatibility: compat,
	}
}

// NoStackOverlapCeiling is the highest total a company can reach against
// request when it shares none of the requested tech stacks. Specialty and
// rating are taken at their maxima; budget depends only on the request.
func NoStackOverlapCeiling(request models.Request) int {
	tech := 0
	if len(request.RequestedTechStacks()) == 0 {
		tech = MaxTechStackScore
	}
	budget, _ := BudgetScore(request.BudgetMin, request.BudgetMax)
	return tech + MaxSpecialtyScore + budget + MaxRatingScore
}

// labelSet keeps insertion order and ignores case-insensitive duplicates.
type labelSet struct {
	seen   map[string]struct{}
	labels []string
}

func newLabelSet() *labelSet {
	return &labelSet{seen: make(map[string]struct{}), labels: []string{}}
}

func (s *labelSet) add(label string) {
	key := strings.ToLower(label)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.labels = append(s.labels, label)
}

// Calculator binds a Config for callers that score repeatedly.
type Calculator struct {
	cfg *Config
}

// NewCalculator returns a Calculator using cfg, or DefaultConfig when nil.
func NewCalculator(cfg *Config) *Calculator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Calculator{cfg: cfg}
}

func (c *Calculator) Calculate(company models.Company, request models.Request) MatchScore {
	return CalculateMatchScore(company, request, c.cfg)
}

// Config returns the calculator's configuration.
func (c *Calculator) Config() *Config {
	return c.cfg
}
