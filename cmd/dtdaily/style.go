package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/lyndonlyu/dtdaily/internal/analysis"
	"github.com/lyndonlyu/dtdaily/internal/health"
)

var (
	styleBanner  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	styleLevel = map[health.Level]lipgloss.Style{
		health.GREEN:    styleSuccess,
		health.YELLOW:   styleWarn,
		health.RED:      styleError,
		health.CRITICAL: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
)

func renderLevel(l health.Level) string {
	if s, ok := styleLevel[l]; ok {
		return s.Render(l.String())
	}
	return l.String()
}

func renderStatus(s analysis.Status) string {
	switch s {
	case analysis.Healthy:
		return styleSuccess.Render(s.Label())
	case analysis.NeedsAttention:
		return styleWarn.Render(s.Label())
	default:
		return styleError.Render(s.Label())
	}
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
