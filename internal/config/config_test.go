package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvTenantURL, EnvAPIToken, EnvRecipient, EnvLookbackHours,
		EnvCheckProblems, EnvCheckOneAgent, EnvCheckGateways, EnvCheckSynthetic,
		EnvLogFile, EnvLogLevel, EnvReportsDir, EnvTimezone,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, PlaceholderTenantURL, cfg.Dynatrace.TenantURL)
	assert.Equal(t, PlaceholderAPIToken, cfg.Dynatrace.APIToken)
	assert.Equal(t, PlaceholderRecipient, cfg.Notify.Recipient)
	assert.Equal(t, 24, cfg.Dynatrace.LookbackHours)
	assert.Equal(t, 30*time.Second, cfg.Dynatrace.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Notify.Timeout)
	assert.True(t, cfg.Checks.Problems)
	assert.True(t, cfg.Checks.OneAgent)
	assert.True(t, cfg.Checks.Gateways)
	assert.True(t, cfg.Checks.Synthetic)
	assert.Equal(t, RetentionConfig{MaxAgeDays: 180, MaxReports: 365}, cfg.Retention)
	assert.False(t, cfg.CredentialsConfigured())
	assert.False(t, cfg.RecipientConfigured())

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "dynatrace_agent", "config.env"), cfg.EnvFile)
	assert.Equal(t, filepath.Join(home, "dynatrace_agent", "reports"), cfg.Notify.ReportsDir)
}

func TestLoadMissingFilesReturnsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "nope.env"))
	require.NoError(t, err, "missing files should return defaults, not error")
	assert.Equal(t, PlaceholderTenantURL, cfg.Dynatrace.TenantURL)
	assert.Empty(t, cfg.Sources)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTenantURL, "https://abc123.live.dynatrace.com")
	t.Setenv(EnvAPIToken, "dt0c01.env")
	t.Setenv(EnvRecipient, "ops@example.com")
	t.Setenv(EnvLookbackHours, "48")
	t.Setenv(EnvCheckSynthetic, "false")

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://abc123.live.dynatrace.com", cfg.Dynatrace.TenantURL)
	assert.Equal(t, "dt0c01.env", cfg.Dynatrace.APIToken)
	assert.Equal(t, "ops@example.com", cfg.Notify.Recipient)
	assert.Equal(t, 48, cfg.Dynatrace.LookbackHours)
	assert.False(t, cfg.Checks.Synthetic)
	assert.True(t, cfg.CredentialsConfigured())
	assert.True(t, cfg.RecipientConfigured())
}

func TestEnvFileOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTenantURL, "https://from-env.live.dynatrace.com")
	t.Setenv(EnvAPIToken, "env-token")

	envFile := filepath.Join(t.TempDir(), "config.env")
	content := []byte(`# Dynatrace
DYNATRACE_TENANT_URL="https://from-file.live.dynatrace.com"

DYNATRACE_API_TOKEN='file-token'
IMESSAGE_RECIPIENT = +15551234
not a pair
`)
	require.NoError(t, os.WriteFile(envFile, content, 0644))

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.live.dynatrace.com", cfg.Dynatrace.TenantURL)
	assert.Equal(t, "file-token", cfg.Dynatrace.APIToken)
	assert.Equal(t, "+15551234", cfg.Notify.Recipient)
	assert.Equal(t, []string{envFile}, cfg.Sources)

	_, set := os.LookupEnv("IMESSAGE_RECIPIENT")
	assert.False(t, set, "loading must not write into the process environment")
}

func TestLoadSettingsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	settings := filepath.Join(dir, "config.yaml")
	content := []byte(`dynatrace:
  tenant_url: https://yaml.live.dynatrace.com
  lookback_hours: 12
checks:
  problems: true
  oneagent: false
  activegate: true
  synthetic: true
notify:
  reports_dir: ` + filepath.Join(dir, "reports") + `
metrics:
  textfile_path: ` + filepath.Join(dir, "dtdaily.prom") + `
timezone: UTC
`)
	require.NoError(t, os.WriteFile(settings, content, 0644))

	cfg, err := Load(settings, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.live.dynatrace.com", cfg.Dynatrace.TenantURL)
	assert.Equal(t, 12, cfg.Dynatrace.LookbackHours)
	assert.False(t, cfg.Checks.OneAgent)
	assert.Equal(t, filepath.Join(dir, "reports"), cfg.Notify.ReportsDir)
	assert.Equal(t, filepath.Join(dir, "dtdaily.prom"), cfg.Metrics.TextfilePath)
	// Defaults preserved for unset fields
	assert.Equal(t, 30*time.Second, cfg.Dynatrace.Timeout)
	assert.Equal(t, PlaceholderRecipient, cfg.Notify.Recipient)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoadInvalidSettingsFile(t *testing.T) {
	clearEnv(t)
	settings := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("dynatrace: [unclosed"), 0644))

	_, err := Load(settings, "")
	assert.Error(t, err)
}

func TestInvalidNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLookbackHours, "soon")
	t.Setenv(EnvCheckOneAgent, "maybe")

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Dynatrace.LookbackHours)
	assert.True(t, cfg.Checks.OneAgent)
}

func TestParseEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	content := []byte(`A=1
B = "two"
C='three'
D="unbalanced
E=x=y
# F=commented
=novalue
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	vals, err := ParseEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"A": "1",
		"B": "two",
		"C": "three",
		"D": `"unbalanced`,
		"E": "x=y",
	}, vals)
}

func TestParseEnvFileMissing(t *testing.T) {
	vals, err := ParseEnvFile(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Nil(t, vals)
}

func TestPlaceholderDetection(t *testing.T) {
	cfg := Default()
	cfg.Dynatrace.TenantURL = "https://abc.live.dynatrace.com"
	assert.False(t, cfg.CredentialsConfigured(), "token still a placeholder")

	cfg.Dynatrace.APIToken = "dt0c01.real"
	assert.True(t, cfg.CredentialsConfigured())

	cfg.Notify.Recipient = "+441234567890"
	assert.False(t, cfg.RecipientConfigured())
}

func TestLocationFallback(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.Local, cfg.Location())
}
