package matching

import "fmt"

const (
	DefaultMinScore   = 30
	DefaultMaxResults = 20
)

// Config tunes match ranking. The weight fields are carried for a future
// re-weighting of the sub-scores and are not applied by CalculateMatchScore.
type Config struct {
	TechStackWeight float64 `mapstructure:"tech_stack_weight" json:"techStackWeight"`
	SpecialtyWeight float64 `mapstructure:"specialty_weight" json:"specialtyWeight"`
	BudgetWeight    float64 `mapstructure:"budget_weight" json:"budgetWeight"`
	RatingWeight    float64 `mapstructure:"rating_weight" json:"ratingWeight"`
	MinScore        int     `mapstructure:"min_score" json:"minScore"`
	MaxResults      int     `mapstructure:"max_results" json:"maxResults"`
}

func DefaultConfig() *Config {
	return &Config{
		TechStackWeight: 0.4,
		SpecialtyWeight: 0.3,
		BudgetWeight:    0.2,
		RatingWeight:    0.1,
		MinScore:        DefaultMinScore,
		MaxResults:      DefaultMaxResults,
	}
}

func (c *Config) Validate() error {
	if c.MinScore < 0 || c.MinScore > 100 {
		return fmt.Errorf("min_score must be between 0 and 100")
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must not be negative")
	}
	for name, w := range map[string]float64{
		"tech_stack_weight": c.TechStackWeight,
		"specialty_weight":  c.SpecialtyWeight,
		"budget_weight":     c.BudgetWeight,
		"rating_weight":     c.RatingWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) maxResults() int {
	if c.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return c.MaxResults
}
