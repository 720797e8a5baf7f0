// internal/tools/followup-schedule/config.go
package followupschedule

import "intake-orchestrator/internal/common/config"

type Config struct {
	MinDays     int
	MaxDays     int
	DefaultDays int
	SMSEnabled  bool
}

func FromAppConfig(cfg *config.Config) *Config {
	c := &Config{
		MinDays:     cfg.Tools.Followup.MinDays,
		MaxDays:     cfg.Tools.Followup.MaxDays,
		DefaultDays: cfg.Tools.Followup.DefaultDays,
		SMSEnabled:  cfg.Integrations.AWS.SNS.Enabled,
	}
	if c.MinDays <= 0 {
		c.MinDays = 1
	}
	if c.MaxDays <= 0 {
		c.MaxDays = 90
	}
	if c.DefaultDays <= 0 {
		c.DefaultDays = 7
	}
	return c
}
