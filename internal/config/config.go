package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lyndonlyu/dtdaily/internal/redact"
)

// Placeholder values shipped in the defaults. A run that still carries them is
// treated as unconfigured rather than failed.
const (
	PlaceholderTenantURL = "https://YOUR_TENANT.live.dynatrace.com"
	PlaceholderAPIToken  = "YOUR_API_TOKEN"
	PlaceholderRecipient = "+1234567890"

	placeholderMarker  = "YOUR_"
	recipientSentinel  = "1234567890"
	defaultLookback    = 24
	defaultHTTPTimeout = 30 * time.Second
)

// Environment keys understood by the env file and the process environment.
const (
	EnvTenantURL      = "DYNATRACE_TENANT_URL"
	EnvAPIToken       = "DYNATRACE_API_TOKEN"
	EnvRecipient      = "IMESSAGE_RECIPIENT"
	EnvLookbackHours  = "PROBLEM_LOOKBACK_HOURS"
	EnvCheckProblems  = "CHECK_PROBLEMS"
	EnvCheckOneAgent  = "CHECK_ONEAGENT_HEALTH"
	EnvCheckGateways  = "CHECK_ACTIVEGATE_HEALTH"
	EnvCheckSynthetic = "CHECK_SYNTHETIC_MONITORS"
	EnvLogFile        = "DTDAILY_LOG_FILE"
	EnvLogLevel       = "DTDAILY_LOG_LEVEL"
	EnvReportsDir     = "DTDAILY_REPORTS_DIR"
	EnvTimezone       = "DTDAILY_TIMEZONE"
)

type DynatraceConfig struct {
	TenantURL     string        `yaml:"tenant_url"`
	APIToken      string        `yaml:"-"` // env or env file only
	Timeout       time.Duration `yaml:"timeout"`
	LookbackHours int           `yaml:"lookback_hours"`
}

type ChecksConfig struct {
	Problems  bool `yaml:"problems"`
	OneAgent  bool `yaml:"oneagent"`
	Gateways  bool `yaml:"activegate"`
	Synthetic bool `yaml:"synthetic"`
}

type NotifyConfig struct {
	Recipient  string        `yaml:"recipient"`
	Timeout    time.Duration `yaml:"timeout"`
	ReportsDir string        `yaml:"reports_dir"`
}

type LoggingConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RetentionConfig bounds the backup reports and run history kept on disk.
// Zero disables a rule.
type RetentionConfig struct {
	MaxAgeDays int `yaml:"max_age_days"`
	MaxReports int `yaml:"max_reports"`
}

type MetricsConfig struct {
	// TextfilePath is a node_exporter textfile collector target. Empty disables export.
	TextfilePath string `yaml:"textfile_path"`
}

type Config struct {
	Dynatrace DynatraceConfig        `yaml:"dynatrace"`
	Checks    ChecksConfig           `yaml:"checks"`
	Notify    NotifyConfig           `yaml:"notify"`
	Logging   LoggingConfig          `yaml:"logging"`
	Redaction redact.RedactionConfig `yaml:"redaction"`
	History   HistoryConfig          `yaml:"history"`
	Metrics   MetricsConfig          `yaml:"metrics"`
	Retention RetentionConfig        `yaml:"retention"`
	Timezone  string                 `yaml:"timezone"`

	BaseDir  string   `yaml:"-"`
	EnvFile  string   `yaml:"-"`
	LockFile string   `yaml:"-"`
	Sources  []string `yaml:"-"` // files that contributed, in load order
}

// Default returns the configuration used when no file or environment value
// overrides a setting.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, "dynatrace_agent")
	red := redact.DefaultConfig()
	red.Enabled = true
	return &Config{
		Dynatrace: DynatraceConfig{
			TenantURL:     PlaceholderTenantURL,
			APIToken:      PlaceholderAPIToken,
			Timeout:       defaultHTTPTimeout,
			LookbackHours: defaultLookback,
		},
		Checks: ChecksConfig{Problems: true, OneAgent: true, Gateways: true, Synthetic: true},
		Notify: NotifyConfig{
			Recipient:  PlaceholderRecipient,
			Timeout:    defaultHTTPTimeout,
			ReportsDir: filepath.Join(base, "reports"),
		},
		Logging: LoggingConfig{
			File:       filepath.Join(home, "Library", "Logs", "dynatrace_agent.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 90,
		},
		Redaction: red,
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(base, "history.db"),
		},
		Retention: RetentionConfig{MaxAgeDays: 180, MaxReports: 365},
		Timezone:  "Local",
		BaseDir:   base,
		EnvFile:   filepath.Join(base, "config.env"),
		LockFile:  filepath.Join(base, "agent.lock"),
	}
}

// DefaultSettingsPath is the YAML settings file consulted when --config is not given.
func DefaultSettingsPath() string {
	return filepath.Join(Default().BaseDir, "config.yaml")
}

// Load assembles the run configuration: defaults, then the YAML settings file,
// then the process environment, then the key=value env file. Missing files are
// skipped. An empty envFile selects the default location.
func Load(settingsPath, envFile string) (*Config, error) {
	cfg := Default()
	if envFile != "" {
		cfg.EnvFile = envFile
	}

	if settingsPath != "" {
		data, err := os.ReadFile(settingsPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("config: read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse settings %s: %w", settingsPath, err)
			}
			cfg.Sources = append(cfg.Sources, settingsPath)
		}
	}

	fileVals, err := ParseEnvFile(cfg.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if fileVals != nil {
		cfg.Sources = append(cfg.Sources, cfg.EnvFile)
	}

	applyOverrides(cfg, func(key string) (string, bool) {
		if v, ok := fileVals[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	})
	backfill(cfg)
	return cfg, nil
}

func applyOverrides(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvTenantURL); ok && v != "" {
		cfg.Dynatrace.TenantURL = v
	}
	if v, ok := lookup(EnvAPIToken); ok && v != "" {
		cfg.Dynatrace.APIToken = v
	}
	if v, ok := lookup(EnvRecipient); ok && v != "" {
		cfg.Notify.Recipient = v
	}
	if v, ok := lookup(EnvLookbackHours); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Dynatrace.LookbackHours = n
		}
	}
	setBool(lookup, EnvCheckProblems, &cfg.Checks.Problems)
	setBool(lookup, EnvCheckOneAgent, &cfg.Checks.OneAgent)
	setBool(lookup, EnvCheckGateways, &cfg.Checks.Gateways)
	setBool(lookup, EnvCheckSynthetic, &cfg.Checks.Synthetic)
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		cfg.Logging.File = expandHome(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := lookup(EnvReportsDir); ok && v != "" {
		cfg.Notify.ReportsDir = expandHome(v)
	}
	if v, ok := lookup(EnvTimezone); ok && v != "" {
		cfg.Timezone = v
	}
}

func setBool(lookup func(string) (string, bool), key string, dst *bool) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
		*dst = b
	}
}

// backfill restores defaults for settings a YAML file zeroed out.
func backfill(cfg *Config) {
	def := Default()
	if cfg.Dynatrace.TenantURL == "" {
		cfg.Dynatrace.TenantURL = def.Dynatrace.TenantURL
	}
	if cfg.Dynatrace.Timeout <= 0 {
		cfg.Dynatrace.Timeout = def.Dynatrace.Timeout
	}
	if cfg.Dynatrace.LookbackHours <= 0 {
		cfg.Dynatrace.LookbackHours = def.Dynatrace.LookbackHours
	}
	if cfg.Notify.Recipient == "" {
		cfg.Notify.Recipient = def.Notify.Recipient
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = def.Notify.Timeout
	}
	if cfg.Notify.ReportsDir == "" {
		cfg.Notify.ReportsDir = def.Notify.ReportsDir
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = def.Logging.File
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.History.Path == "" {
		cfg.History.Path = def.History.Path
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	cfg.Notify.ReportsDir = expandHome(cfg.Notify.ReportsDir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Metrics.TextfilePath = expandHome(cfg.Metrics.TextfilePath)
}

// CredentialsConfigured reports whether both the tenant URL and the API token
// have been replaced with real values.
func (c *Config) CredentialsConfigured() bool {
	return !strings.Contains(c.Dynatrace.TenantURL, placeholderMarker) &&
		!strings.Contains(c.Dynatrace.APIToken, placeholderMarker)
}

// RecipientConfigured reports whether the Messages recipient is a real handle.
func (c *Config) RecipientConfigured() bool {
	return !strings.Contains(c.Notify.Recipient, recipientSentinel)
}

// Location resolves the configured timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
