// internal/workers/proposal/submit-proposal/config.go
package submitproposal

import "time"

const DefaultMinContentLength = 50

type Config struct {
	Timeout          time.Duration
	MinContentLength int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          15 * time.Second,
		MinContentLength: DefaultMinContentLength,
	}
}
