// internal/workers/matching/refresh-company-cache/config.go
package refreshcompanycache

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}
