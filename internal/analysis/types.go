package analysis

import "time"

// Status is the textual health grade derived from the score.
type Status int

const (
	Healthy        Status = iota // score >= 90
	NeedsAttention               // score >= 70
	Critical                     // below 70
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "Healthy"
	case NeedsAttention:
		return "Needs Attention"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Label is the status with its traffic-light marker, as shown in reports.
func (s Status) Label() string {
	switch s {
	case Healthy:
		return "🟢 " + s.String()
	case NeedsAttention:
		return "🟡 " + s.String()
	default:
		return "🔴 " + s.String()
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ProblemDetail struct {
	Title    string `json:"title"`
	Severity string `json:"severity"`
}

type ProblemSummary struct {
	Skipped  bool            `json:"skipped,omitempty"`
	Total    int             `json:"total"`
	Critical int             `json:"critical"`
	Warnings int             `json:"warnings"`
	Details  []ProblemDetail `json:"details,omitempty"`
}

// VersionCount is one entry of the installer version ranking.
type VersionCount struct {
	Version string `json:"version"`
	Hosts   int    `json:"hosts"`
}

type FleetSummary struct {
	Skipped         bool           `json:"skipped,omitempty"`
	TotalHosts      int            `json:"total_hosts"`
	MonitoringModes map[string]int `json:"monitoring_modes,omitempty"`
	VersionCount    int            `json:"version_count"`
	TopVersions     []VersionCount `json:"top_versions,omitempty"`
}

type GatewaySummary struct {
	Skipped   bool `json:"skipped,omitempty"`
	Total     int  `json:"total"`
	Connected int  `json:"connected"`
	Offline   int  `json:"offline"`
}

type SyntheticSummary struct {
	Skipped  bool `json:"skipped,omitempty"`
	Total    int  `json:"total"`
	Enabled  int  `json:"enabled"`
	Disabled int  `json:"disabled"`
}

type Summary struct {
	HealthScore int      `json:"health_score"`
	Status      Status   `json:"status"`
	IssuesCount int      `json:"issues_count"`
	Issues      []string `json:"issues"`
}

// Result is the outcome of one analysis run.
type Result struct {
	Timestamp     time.Time        `json:"timestamp"`
	LookbackHours int              `json:"lookback_hours"`
	Problems      ProblemSummary   `json:"problems"`
	Fleet         FleetSummary     `json:"oneagent"`
	Gateways      GatewaySummary   `json:"activegate"`
	Synthetic     SyntheticSummary `json:"synthetic"`
	Summary       Summary          `json:"summary"`
}
