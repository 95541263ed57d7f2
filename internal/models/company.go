// internal/models/company.go
package models

// Company is the read-only view of a development company used by matching.
// AverageRating is 0 whenever ReviewCount is 0.
type Company struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	IsVerified         bool     `json:"isVerified"`
	AcceptsNewProjects bool     `json:"acceptsNewProjects"`
	AverageRating      float64  `json:"averageRating"`
	ReviewCount        int      `json:"reviewCount"`
	TechStacks         []string `json:"techStacks"`
	Specialties        []string `json:"specialties"`
}
