// Package health grades the agent's pre-flight checks for `dtdaily doctor`.
package health

// Level is the overall readiness of the agent.
type Level int

const (
	GREEN    Level = iota // every check passed
	YELLOW                // one important check failed
	RED                   // one critical or two important checks failed
	CRITICAL              // two or more critical checks failed
)

func (l Level) String() string {
	switch l {
	case GREEN:
		return "GREEN"
	case YELLOW:
		return "YELLOW"
	case RED:
		return "RED"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Check categories. Optional failures never change the level.
const (
	Critical  = "critical"
	Important = "important"
	Optional  = "optional"
)

// ComponentStatus is the outcome of one check.
type ComponentStatus struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Healthy  bool   `json:"healthy"`
	Detail   string `json:"detail"`
}

type Report struct {
	Level      Level             `json:"level"`
	Components []ComponentStatus `json:"components"`
}

// Determine grades components without doing any I/O.
func Determine(components []ComponentStatus) Level {
	var critical, important int
	for _, c := range components {
		if c.Healthy {
			continue
		}
		switch c.Category {
		case Critical:
			critical++
		case Important:
			important++
		}
	}

	switch {
	case critical >= 2:
		return CRITICAL
	case critical == 1, important >= 2:
		return RED
	case important == 1:
		return YELLOW
	default:
		return GREEN
	}
}

func NewReport(components []ComponentStatus) *Report {
	return &Report{Level: Determine(components), Components: components}
}

// Ready reports whether a scheduled run would produce a normal report.
func (r *Report) Ready() bool {
	return r.Level == GREEN || r.Level == YELLOW
}
