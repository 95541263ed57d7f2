// internal/workers/communication/send-decision-notification/config.go
package senddecisionnotification

import (
	"fmt"
	"time"

	"quote-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	// SMSOnSelectionOnly limits SMS to SELECTED decisions.
	SMSOnSelectionOnly bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:            30 * time.Second,
		EmailEnabled:       true,
		SMSOnSelectionOnly: true,
	}
}

// ConfigFrom maps the notifications section of the application config.
func ConfigFrom(nc config.NotificationConfig) *Config {
	cfg := DefaultConfig()
	cfg.EmailEnabled = nc.Email.Enabled
	cfg.SMSEnabled = nc.SMS.Enabled
	cfg.SMSOnSelectionOnly = nc.SMS.OnSelectionOnly
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !c.EmailEnabled && !c.SMSEnabled {
		return fmt.Errorf("at least one notification channel must be enabled")
	}
	return nil
}
