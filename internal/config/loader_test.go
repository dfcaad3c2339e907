package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
version: 1
stale_days: 60
session_duration_ignore_roles:
  - ci-runner
  - terraform-apply
extra_sensitive_actions:
  - kms:ScheduleKeyDeletion
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.StaleWindowDays())
	assert.True(t, cfg.IsSessionDurationIgnored("ci-runner"))
	assert.False(t, cfg.IsSessionDurationIgnored("deployer"))
	assert.Equal(t, []string{"kms:ScheduleKeyDeletion"}, cfg.ExtraSensitiveActions)
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := writeConfig(t, "version: 2\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultStaleDays, cfg.StaleWindowDays())
	assert.False(t, cfg.IsSessionDurationIgnored("anything"))

	// A nil config behaves like the default.
	var nilCfg *AuditConfig
	assert.Equal(t, DefaultStaleDays, nilCfg.StaleWindowDays())
	assert.False(t, nilCfg.IsSessionDurationIgnored("anything"))
}
