package matching

type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// MatchTier is the display classification of a match score.
type MatchTier struct {
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
	Color string `json:"color"`
}

func GetMatchTier(score int) MatchTier {
	switch {
	case score >= 80:
		return MatchTier{Tier: TierExcellent, Label: "Excellent Match", Color: "green"}
	case score >= 60:
		return MatchTier{Tier: TierGood, Label: "Good Match", Color: "blue"}
	case score >= 40:
		return MatchTier{Tier: TierFair, Label: "Fair Match", Color: "yellow"}
	default:
		return MatchTier{Tier: TierPoor, Label: "Poor Match", Color: "gray"}
	}
}
