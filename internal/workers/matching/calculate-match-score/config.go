// internal/workers/matching/calculate-match-score/config.go
package calculatematchscore

import (
	"time"

	"quote-workers/internal/matching"
)

type Config struct {
	Timeout time.Duration
	Scoring *matching.Config
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Scoring: matching.DefaultConfig(),
	}
}
