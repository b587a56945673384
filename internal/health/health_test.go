package health

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyndonlyu/dtdaily/internal/config"
	"github.com/lyndonlyu/dtdaily/internal/filelock"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{GREEN, "GREEN"},
		{YELLOW, "YELLOW"},
		{RED, "RED"},
		{CRITICAL, "CRITICAL"},
		{Level(9), "UNKNOWN"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, tc.level.String())
	}
}

func TestDetermine(t *testing.T) {
	ok := func(cat string) ComponentStatus { return ComponentStatus{Category: cat, Healthy: true} }
	bad := func(cat string) ComponentStatus { return ComponentStatus{Category: cat} }

	tests := []struct {
		name       string
		components []ComponentStatus
		want       Level
	}{
		{"all healthy", []ComponentStatus{ok(Critical), ok(Important), ok(Optional)}, GREEN},
		{"optional failure ignored", []ComponentStatus{ok(Critical), bad(Optional)}, GREEN},
		{"one important", []ComponentStatus{ok(Critical), bad(Important)}, YELLOW},
		{"two important", []ComponentStatus{bad(Important), bad(Important)}, RED},
		{"one critical", []ComponentStatus{bad(Critical), ok(Important)}, RED},
		{"two critical", []ComponentStatus{bad(Critical), bad(Critical)}, CRITICAL},
		{"empty", nil, GREEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Determine(tt.components))
		})
	}
}

func configuredConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dynatrace.TenantURL = "https://abc123.live.dynatrace.com"
	cfg.Dynatrace.APIToken = "dt0c01.ABCD.EFGHIJKLMNOP"
	cfg.Notify.Recipient = "ops@example.com"
	cfg.Notify.ReportsDir = filepath.Join(dir, "reports")
	cfg.Logging.File = filepath.Join(dir, "logs", "agent.log")
	cfg.LockFile = filepath.Join(dir, "agent.lock")
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

func foundOsascript(string) (string, error) { return "/usr/bin/osascript", nil }
func noOsascript(string) (string, error)    { return "", errors.New("not found") }

func TestEvaluateConfigured(t *testing.T) {
	r := Evaluate(configuredConfig(t), foundOsascript)
	for _, c := range r.Components {
		assert.True(t, c.Healthy, "%s: %s", c.Name, c.Detail)
	}
	assert.Equal(t, GREEN, r.Level)
	assert.True(t, r.Ready())
}

func TestEvaluateDefaults(t *testing.T) {
	cfg := configuredConfig(t)
	cfg.Dynatrace.APIToken = config.PlaceholderAPIToken
	cfg.Notify.Recipient = config.PlaceholderRecipient

	r := Evaluate(cfg, noOsascript)
	assert.Equal(t, RED, r.Level, "placeholder credentials are critical")
	assert.False(t, r.Ready())

	byName := map[string]ComponentStatus{}
	for _, c := range r.Components {
		byName[c.Name] = c
	}
	assert.False(t, byName["credentials"].Healthy)
	assert.Contains(t, byName["credentials"].Detail, cfg.EnvFile)
	assert.False(t, byName["recipient"].Healthy)
	assert.False(t, byName["osascript"].Healthy)
	assert.True(t, byName["tenant_url"].Healthy)
}

func TestCheckTenantURL(t *testing.T) {
	cfg := configuredConfig(t)
	cfg.Dynatrace.TenantURL = "abc123.live.dynatrace.com"
	assert.False(t, CheckTenantURL(cfg).Healthy)

	cfg.Dynatrace.TenantURL = "https://abc123.live.dynatrace.com/"
	cs := CheckTenantURL(cfg)
	assert.True(t, cs.Healthy)
	assert.Equal(t, "https://abc123.live.dynatrace.com", cs.Detail)
}

func TestCheckDirWritable(t *testing.T) {
	dir := t.TempDir()

	cs := checkDirWritable(dir, "d", Important)
	assert.True(t, cs.Healthy)
	assert.Equal(t, "Writable", cs.Detail)

	cs = checkDirWritable(filepath.Join(dir, "a", "b"), "d", Important)
	assert.True(t, cs.Healthy)
	assert.Equal(t, "Will be created", cs.Detail)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	cs = checkDirWritable(file, "d", Important)
	assert.False(t, cs.Healthy)
	assert.Equal(t, "Not a directory", cs.Detail)
}

func TestCheckLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.lock")
	assert.Equal(t, "Not held", CheckLock(path).Detail)

	lock, err := filelock.Acquire(path, "run")
	require.NoError(t, err)
	cs := CheckLock(path)
	assert.False(t, cs.Healthy)
	assert.Contains(t, cs.Detail, "Held by PID")
	require.NoError(t, lock.Release())
}

func TestCheckHistoryDisabled(t *testing.T) {
	cs := CheckHistory(config.HistoryConfig{Enabled: false})
	assert.True(t, cs.Healthy)
	assert.Equal(t, "Disabled", cs.Detail)
}

func TestReportJSON(t *testing.T) {
	data, err := json.Marshal(NewReport([]ComponentStatus{{Name: "x", Category: Important}}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"YELLOW"`)
}
