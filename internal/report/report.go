// Package report renders the daily message sent to Messages.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lyndonlyu/dtdaily/internal/analysis"
)

const (
	// TimestampLayout is used for every report header.
	TimestampLayout = "2006-01-02 15:04 MST"

	// UpdatesPointer closes every normal report.
	UpdatesPointer = "📰 Check docs.dynatrace.com/docs/whats-new for latest updates"

	header         = "🔔 Dynatrace Daily Report"
	maxIssues      = 5
	maxErrorLength = 100
	notAvailable   = "N/A"
)

func heading(b *strings.Builder, ts time.Time) {
	b.WriteString(header + "\n")
	fmt.Fprintf(b, "📅 %s\n\n", ts.Format(TimestampLayout))
}

// Unconfigured is the setup block sent while credentials are placeholders.
func Unconfigured(ts time.Time, envFile string) string {
	var b strings.Builder
	heading(&b, ts)
	b.WriteString("⚠️ SETUP REQUIRED\n")
	b.WriteString("Configure your Dynatrace credentials in:\n")
	b.WriteString(envFile + "\n\n")
	b.WriteString("Once configured, you'll receive:\n")
	for _, item := range []string{
		"Problem summary",
		"OneAgent fleet health",
		"ActiveGate status",
		"Architecture analysis",
		"Latest DT updates",
	} {
		b.WriteString("• " + item + "\n")
	}
	b.WriteString("\n📚 Setup guide in README.md\n")
	return strings.TrimSpace(b.String())
}

// Normal renders an analysis result. Skipped sections show N/A.
func Normal(res *analysis.Result) string {
	var b strings.Builder
	heading(&b, res.Timestamp)

	fmt.Fprintf(&b, "%s | Score: %d/100\n\n", res.Summary.Status.Label(), res.Summary.HealthScore)

	p := res.Problems
	fmt.Fprintf(&b, "📊 PROBLEMS (%dh)\n", res.LookbackHours)
	fmt.Fprintf(&b, "• Critical: %s\n", count(p.Critical, p.Skipped))
	fmt.Fprintf(&b, "• Warnings: %s\n", count(p.Warnings, p.Skipped))
	fmt.Fprintf(&b, "• Total: %s\n\n", count(p.Total, p.Skipped))

	f := res.Fleet
	b.WriteString("🖥️ ONEAGENT FLEET\n")
	fmt.Fprintf(&b, "• Total Hosts: %s\n", count(f.TotalHosts, f.Skipped))
	fmt.Fprintf(&b, "• Versions in use: %s\n\n", count(f.VersionCount, f.Skipped))

	g := res.Gateways
	b.WriteString("🌐 ACTIVEGATES\n")
	fmt.Fprintf(&b, "• Connected: %s/%s\n\n", count(g.Connected, g.Skipped), count(g.Total, g.Skipped))

	if issues := res.Summary.Issues; len(issues) > 0 {
		b.WriteString("⚠️ ISSUES:\n")
		for i, issue := range issues {
			if i == maxIssues {
				break
			}
			b.WriteString("• " + issue + "\n")
		}
	}

	b.WriteString("\n" + UpdatesPointer)
	return strings.TrimSpace(b.String())
}

// Failure reports an error raised while building the normal report. The
// message is cut to its first 100 characters.
func Failure(ts time.Time, err error, logPath string) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	var b strings.Builder
	heading(&b, ts)
	b.WriteString("❌ Error fetching data\n")
	b.WriteString(Truncate(msg, maxErrorLength) + "\n\n")
	b.WriteString("Check logs: " + logPath + "\n")
	return strings.TrimSpace(b.String())
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func count(n int, skipped bool) string {
	if skipped {
		return notAvailable
	}
	return strconv.Itoa(n)
}
