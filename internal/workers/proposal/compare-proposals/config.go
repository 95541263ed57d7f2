// internal/workers/proposal/compare-proposals/config.go
package compareproposals

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}
