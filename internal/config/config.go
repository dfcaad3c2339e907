// Package config defines the optional audit configuration file. It tunes
// check thresholds and exclusions; every field has a safe default so the
// audit runs without any file at all.
package config

// DefaultStaleDays is the inactivity window, in days, after which credentials
// and principals are considered stale.
const DefaultStaleDays = 90

// AuditConfig is the parsed audit configuration.
type AuditConfig struct {
	Version int `yaml:"version"`

	// StaleDays overrides the 90-day stale window used by the access-key,
	// zombie-user, and zombie-role checks. Zero means default.
	StaleDays int `yaml:"stale_days,omitempty"`

	// SessionDurationIgnoreRoles lists role names the session-duration check
	// skips entirely, without fetching role detail.
	SessionDurationIgnoreRoles []string `yaml:"session_duration_ignore_roles,omitempty"`

	// ExtraSensitiveActions extends the built-in sensitive-action catalog
	// used by the dangerous-policy check.
	ExtraSensitiveActions []string `yaml:"extra_sensitive_actions,omitempty"`
}

// Default returns a config with every field at its default.
func Default() *AuditConfig {
	return &AuditConfig{Version: 1}
}

// StaleWindowDays resolves the effective stale window.
func (c *AuditConfig) StaleWindowDays() int {
	if c == nil || c.StaleDays <= 0 {
		return DefaultStaleDays
	}
	return c.StaleDays
}

// IsSessionDurationIgnored reports whether the named role is on the
// session-duration ignore list.
func (c *AuditConfig) IsSessionDurationIgnored(roleName string) bool {
	if c == nil {
		return false
	}
	for _, name := range c.SessionDurationIgnoreRoles {
		if name == roleName {
			return true
		}
	}
	return false
}
