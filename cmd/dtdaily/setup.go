package main

import (
	"io"
	"log/slog"

	"github.com/lyndonlyu/dtdaily/internal/config"
	"github.com/lyndonlyu/dtdaily/internal/logging"
	"github.com/lyndonlyu/dtdaily/internal/redact"
)

func loadConfig() (*config.Config, error) {
	path := settingsPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}
	return config.Load(path, envFilePath)
}

// openLogger logs to the configured file and, when console is non-nil, to
// console as well. The API token is always scrubbed.
func openLogger(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	red := redact.New(cfg.Redaction).Literal(cfg.Dynatrace.APIToken)
	return logging.New(cfg.Logging, console, red)
}
