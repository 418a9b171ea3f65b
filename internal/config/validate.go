package config

import (
	"fmt"
	"strings"

	"shopmcp/internal/catalog"
)

// Validate checks required fields and enum constraints, failing fast with an
// actionable message.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.MCPPath, "/") {
		return fmt.Errorf("CONFIG_INVALID: mcp_path %q must start with /", c.MCPPath)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("CONFIG_INVALID: rate_limit_rps must be positive, got %d", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("CONFIG_INVALID: rate_limit_burst must be positive, got %d", c.RateLimitBurst)
	}
	if len(c.Projects) == 0 {
		return fmt.Errorf("CONFIG_INVALID: no projects configured; add a [projects.<name>] table or run: shopmcp config init")
	}
	for name, project := range c.Projects {
		if strings.TrimSpace(project.Database) == "" {
			return fmt.Errorf("CONFIG_INVALID: projects.%s.database is required", name)
		}
		if project.MatchMode != "" && !catalog.KnownMatchMode(catalog.MatchMode(project.MatchMode)) {
			return fmt.Errorf("CONFIG_INVALID: projects.%s.match_mode=%q; allowed: exact, substring", name, project.MatchMode)
		}
	}
	if c.DefaultProject != "" {
		if _, ok := c.Projects[c.DefaultProject]; !ok {
			return fmt.Errorf("CONFIG_INVALID: default_project %q is not a configured project", c.DefaultProject)
		}
	}
	return nil
}

// Mode returns the project's match mode, defaulting to exact.
func (p Project) Mode() catalog.MatchMode {
	if p.MatchMode == "" {
		return catalog.MatchExact
	}
	return catalog.MatchMode(p.MatchMode)
}
