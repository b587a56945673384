package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatRunList renders runs as a table with start times relative to now.
func FormatRunList(runs []Run, now time.Time) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-16s %-13s %-6s %-16s %-10s %s\n",
		"ID", "STARTED", "KIND", "SCORE", "STATUS", "CHANNEL", "BACKUP")
	for _, r := range runs {
		score := "-"
		if r.Kind == KindNormal {
			score = fmt.Sprintf("%d", r.Score)
		}
		fmt.Fprintf(&b, "%-10s %-16s %-13s %-6s %-16s %-10s %s\n",
			shortID(r.ID),
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Kind, score, dash(r.Status), dash(r.Channel), dash(r.BackupPath))
	}
	return b.String()
}

// FormatRunListJSON returns the runs as indented JSON.
func FormatRunListJSON(runs []Run) (string, error) {
	if runs == nil {
		runs = []Run{}
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("history: json marshal: %w", err)
	}
	return string(data), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
