// Package logging builds the run logger: a slog.Logger writing
// "timestamp - LEVEL - message" lines to a rotated log file and to the console.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lyndonlyu/dtdaily/internal/config"
	"github.com/lyndonlyu/dtdaily/internal/redact"
)

// ParseLevel maps a level name to a slog.Level; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger that appends to cfg.File (rotated by lumberjack) and
// mirrors every line to console. The returned closer releases the log file.
func New(cfg config.LoggingConfig, console io.Writer, red *redact.Redactor) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	var out io.Writer = file
	if console != nil {
		out = io.MultiWriter(console, file)
	}

	h := NewLineHandler(out, ParseLevel(cfg.Level), red)
	return slog.New(h), file, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
