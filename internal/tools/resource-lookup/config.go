// internal/tools/resource-lookup/config.go
package resourcelookup

import (
	"time"

	"intake-orchestrator/internal/common/config"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
	MaxPerPage int
}

// FromAppConfig lifts the resource-directory settings out of the global
// config, filling the caps the directory API expects.
func FromAppConfig(cfg *config.Config) *Config {
	rd := cfg.APIs.ResourceDirectory

	c := &Config{
		BaseURL:    rd.BaseURL,
		APIKey:     rd.APIKey,
		Timeout:    time.Duration(rd.Timeout) * time.Millisecond,
		MaxResults: rd.MaxResults,
		MaxPerPage: rd.MaxPerPage,
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	if c.MaxPerPage <= 0 || c.MaxPerPage > 20 {
		c.MaxPerPage = 20
	}
	return c
}
