// internal/workers/matching/find-matching-companies/config.go
package findmatchingcompanies

import (
	"time"

	"quote-workers/internal/matching"
)

type Config struct {
	Timeout time.Duration
	Scoring *matching.Config
	// EnsurePending opens a PENDING proposal for every matched company when
	// the request is published.
	EnsurePending bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Scoring: matching.DefaultConfig(),
	}
}
