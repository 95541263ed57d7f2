// internal/workers/matching/refresh-company-cache/models.go
package refreshcompanycache

import "time"

// Input lists the companies whose profile changed. CompanyID is accepted for
// single-company processes.
type Input struct {
	CompanyID  string   `json:"companyId,omitempty"`
	CompanyIDs []string `json:"companyIds,omitempty"`
}

type Output struct {
	InvalidatedCompanyIDs []string  `json:"invalidatedCompanyIds"`
	RefreshedAt           time.Time `json:"refreshedAt"`
}
