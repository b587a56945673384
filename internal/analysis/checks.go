package analysis

import (
	"fmt"
	"sort"

	"github.com/lyndonlyu/dtdaily/internal/dynatrace"
)

const (
	maxProblemDetails    = 5
	maxTopVersions       = 3
	fragmentationVersion = 3
	unknownProperty      = "unknown"

	penaltyCritical = 10
	penaltyWarning  = 2
	penaltyOffline  = 15
)

// CheckProblems counts ERROR and WARNING problems and keeps the first five.
func CheckProblems(problems []dynatrace.Problem) (ProblemSummary, []string) {
	s := ProblemSummary{Total: len(problems)}
	for i, p := range problems {
		switch p.SeverityLevel {
		case dynatrace.SeverityError:
			s.Critical++
		case dynatrace.SeverityWarning:
			s.Warnings++
		}
		if i < maxProblemDetails {
			s.Details = append(s.Details, ProblemDetail{Title: p.Title, Severity: p.SeverityLevel})
		}
	}

	var issues []string
	if s.Critical > 0 {
		issues = append(issues, fmt.Sprintf("🔴 %d critical problems detected", s.Critical))
	}
	return s, issues
}

// CheckFleet tallies hosts by monitoring mode and installer version. More than
// three distinct versions is reported as fragmentation.
func CheckFleet(hosts []dynatrace.Entity) (FleetSummary, []string) {
	s := FleetSummary{
		TotalHosts:      len(hosts),
		MonitoringModes: make(map[string]int),
	}

	versions := make(map[string]int)
	var order []string
	for _, h := range hosts {
		mode := orUnknown(h.Properties.MonitoringMode)
		version := orUnknown(h.Properties.InstallerVersion)
		s.MonitoringModes[mode]++
		if _, seen := versions[version]; !seen {
			order = append(order, version)
		}
		versions[version]++
	}
	s.VersionCount = len(versions)
	s.TopVersions = topVersions(order, versions, maxTopVersions)

	var issues []string
	if s.VersionCount > fragmentationVersion {
		issues = append(issues, fmt.Sprintf("⚠️ OneAgent version fragmentation: %d different versions", s.VersionCount))
	}
	return s, issues
}

// topVersions ranks versions by host count. Ties keep first-seen order.
func topVersions(order []string, counts map[string]int, n int) []VersionCount {
	ranked := make([]VersionCount, 0, len(order))
	for _, v := range order {
		ranked = append(ranked, VersionCount{Version: v, Hosts: counts[v]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Hosts > ranked[j].Hosts
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// CheckGateways counts connected ActiveGates; every other gateway is offline.
func CheckGateways(gates []dynatrace.ActiveGate) (GatewaySummary, []string) {
	s := GatewaySummary{Total: len(gates)}
	for _, g := range gates {
		if g.Connected {
			s.Connected++
		}
	}
	s.Offline = s.Total - s.Connected

	var issues []string
	if s.Offline > 0 {
		issues = append(issues, fmt.Sprintf("🔴 %d ActiveGate(s) offline", s.Offline))
	}
	return s, issues
}

// CheckSynthetic counts enabled monitors. Disabled monitors are informational
// and never raise an issue.
func CheckSynthetic(monitors []dynatrace.SyntheticMonitor) SyntheticSummary {
	s := SyntheticSummary{Total: len(monitors)}
	for _, m := range monitors {
		if m.Enabled {
			s.Enabled++
		}
	}
	s.Disabled = s.Total - s.Enabled
	return s
}

// Score deducts 10 per critical problem, 2 per warning and 15 per offline
// gateway from 100, clamped to [0, 100].
func Score(critical, warnings, offline int) int {
	score := 100 - penaltyCritical*critical - penaltyWarning*warnings - penaltyOffline*offline
	return max(0, min(100, score))
}

// StatusFor grades a score.
func StatusFor(score int) Status {
	switch {
	case score >= 90:
		return Healthy
	case score >= 70:
		return NeedsAttention
	default:
		return Critical
	}
}

// Summarize folds the section results into the overall score. Skipped
// sections contribute zero counts.
func Summarize(p ProblemSummary, g GatewaySummary, issues []string) Summary {
	score := Score(p.Critical, p.Warnings, g.Offline)
	if issues == nil {
		issues = []string{}
	}
	return Summary{
		HealthScore: score,
		Status:      StatusFor(score),
		IssuesCount: len(issues),
		Issues:      issues,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownProperty
	}
	return s
}
