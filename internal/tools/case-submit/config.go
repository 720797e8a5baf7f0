// internal/tools/case-submit/config.go
package casesubmit

import "intake-orchestrator/internal/common/config"

type Config struct {
	NotifyEmail    string
	FromEmail      string
	ProgramName    string
	ReferenceWidth int
	EmailEnabled   bool
}

func FromAppConfig(cfg *config.Config) *Config {
	c := &Config{
		NotifyEmail:    cfg.Tools.CaseSubmit.NotifyEmail,
		FromEmail:      cfg.Integrations.AWS.SES.FromEmail,
		ProgramName:    cfg.Tools.CaseSubmit.ProgramName,
		ReferenceWidth: cfg.Tools.CaseSubmit.ReferenceWidth,
		EmailEnabled:   cfg.Integrations.AWS.SES.Enabled,
	}
	if c.ProgramName == "" {
		c.ProgramName = "Neighbor Assistance Program"
	}
	if c.ReferenceWidth <= 0 {
		c.ReferenceWidth = 8
	}
	return c
}
