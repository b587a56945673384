package report

import (
	"fmt"
	"strings"

	"github.com/lyndonlyu/dtdaily/internal/analysis"
)

// Markdown renders the full analysis result, including the detail the text
// message leaves out, for the terminal preview.
func Markdown(res *analysis.Result) string {
	var b strings.Builder

	b.WriteString("# Dynatrace Daily Report\n\n")
	fmt.Fprintf(&b, "_%s_\n\n", res.Timestamp.Format(TimestampLayout))
	fmt.Fprintf(&b, "**%s** | Score: **%d/100**\n\n", res.Summary.Status.Label(), res.Summary.HealthScore)

	fmt.Fprintf(&b, "## Problems (last %dh)\n\n", res.LookbackHours)
	if p := res.Problems; p.Skipped {
		b.WriteString("Skipped.\n\n")
	} else {
		b.WriteString("| Critical | Warnings | Total |\n|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %d | %d | %d |\n\n", p.Critical, p.Warnings, p.Total)
		for _, d := range p.Details {
			fmt.Fprintf(&b, "- `%s` %s\n", d.Severity, escape(d.Title))
		}
		if len(p.Details) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("## OneAgent fleet\n\n")
	if f := res.Fleet; f.Skipped {
		b.WriteString("Skipped.\n\n")
	} else {
		fmt.Fprintf(&b, "%d hosts, %d installer versions.\n\n", f.TotalHosts, f.VersionCount)
		if len(f.TopVersions) > 0 {
			b.WriteString("| Version | Hosts |\n|---|---:|\n")
			for _, v := range f.TopVersions {
				fmt.Fprintf(&b, "| %s | %d |\n", escape(v.Version), v.Hosts)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## ActiveGates\n\n")
	if g := res.Gateways; g.Skipped {
		b.WriteString("Skipped.\n\n")
	} else {
		fmt.Fprintf(&b, "%d of %d connected, %d offline.\n\n", g.Connected, g.Total, g.Offline)
	}

	b.WriteString("## Synthetic monitors\n\n")
	if s := res.Synthetic; s.Skipped {
		b.WriteString("Skipped.\n\n")
	} else {
		fmt.Fprintf(&b, "%d of %d enabled.\n\n", s.Enabled, s.Total)
	}

	if len(res.Summary.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, issue := range res.Summary.Issues {
			fmt.Fprintf(&b, "- %s\n", escape(issue))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n" + UpdatesPointer + "\n")
	return b.String()
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "'")

func escape(s string) string {
	return mdEscaper.Replace(s)
}
