package dynatrace

import "encoding/json"

// Problem severity levels the analysis distinguishes. Other levels
// (AVAILABILITY, PERFORMANCE, RESOURCE_CONTENTION, CUSTOM_ALERT) count toward
// the total only.
const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
)

// Problem is one entry of GET /api/v2/problems.
type Problem struct {
	ProblemID     string `json:"problemId"`
	DisplayID     string `json:"displayId"`
	Title         string `json:"title"`
	SeverityLevel string `json:"severityLevel"`
	ImpactLevel   string `json:"impactLevel"`
	Status        string `json:"status"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
}

type ProblemList struct {
	TotalCount  int       `json:"totalCount"`
	PageSize    int       `json:"pageSize"`
	NextPageKey string    `json:"nextPageKey,omitempty"`
	Problems    []Problem `json:"problems"`
}

// EntityProperties holds the host properties requested through the fields parameter.
type EntityProperties struct {
	MonitoringMode   string `json:"monitoringMode"`
	InstallerVersion string `json:"installerVersion"`
	State            string `json:"state"`
}

// Entity is one monitored host from GET /api/v2/entities.
type Entity struct {
	EntityID    string           `json:"entityId"`
	DisplayName string           `json:"displayName"`
	Type        string           `json:"type"`
	Properties  EntityProperties `json:"properties"`
}

type EntityList struct {
	TotalCount  int      `json:"totalCount"`
	PageSize    int      `json:"pageSize"`
	NextPageKey string   `json:"nextPageKey,omitempty"`
	Entities    []Entity `json:"entities"`
}

type ActiveGate struct {
	ID        string `json:"id"`
	Hostname  string `json:"hostname"`
	Version   string `json:"version"`
	Type      string `json:"type"`
	OSType    string `json:"osType"`
	Connected bool   `json:"connected"`
}

type ActiveGateList struct {
	ActiveGates []ActiveGate `json:"activeGates"`
}

type SyntheticMonitor struct {
	EntityID string `json:"entityId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Enabled  bool   `json:"enabled"`
}

type SyntheticMonitorList struct {
	Monitors []SyntheticMonitor `json:"monitors"`
}

// SettingsObject keeps the schema-specific value undecoded.
type SettingsObject struct {
	ObjectID      string          `json:"objectId"`
	SchemaID      string          `json:"schemaId"`
	SchemaVersion string          `json:"schemaVersion"`
	Scope         string          `json:"scope"`
	Value         json.RawMessage `json:"value"`
}

type SettingsObjectList struct {
	TotalCount  int              `json:"totalCount"`
	PageSize    int              `json:"pageSize"`
	NextPageKey string           `json:"nextPageKey,omitempty"`
	Items       []SettingsObject `json:"items"`
}
