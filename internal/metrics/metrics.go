// Package metrics exposes the last run as Prometheus gauges written to a
// node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lyndonlyu/dtdaily/internal/analysis"
)

const namespace = "dtdaily"

// Run is what one agent run reports.
type Run struct {
	Kind     string
	Result   *analysis.Result // nil unless the analysis completed
	Channel  string           // empty when nothing was delivered
	Duration time.Duration
	Finished time.Time
}

// Exporter owns a private registry so the textfile carries only agent metrics.
type Exporter struct {
	reg *prometheus.Registry

	healthScore *prometheus.GaugeVec
	problems    *prometheus.GaugeVec
	hosts       *prometheus.GaugeVec
	versions    *prometheus.GaugeVec
	gateways    *prometheus.GaugeVec
	synthetic   *prometheus.GaugeVec
	issues      *prometheus.GaugeVec
	reportKind  *prometheus.GaugeVec
	delivered   *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastRun     prometheus.Gauge
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func NewExporter() *Exporter {
	e := &Exporter{
		reg:         prometheus.NewRegistry(),
		healthScore: gaugeVec("health_score", "Environment health score from 0 to 100."),
		problems:    gaugeVec("problems", "Open problems in the lookback window by severity.", "severity"),
		hosts:       gaugeVec("oneagent_hosts", "Monitored OneAgent hosts."),
		versions:    gaugeVec("oneagent_versions", "Distinct OneAgent installer versions in use."),
		gateways:    gaugeVec("activegates", "ActiveGates by connection state.", "state"),
		synthetic:   gaugeVec("synthetic_monitors", "Synthetic monitors by state.", "state"),
		issues:      gaugeVec("issues", "Issues listed in the last report."),
		reportKind:  gaugeVec("report_kind", "Set to 1 for the kind of report the last run produced.", "kind"),
		delivered:   gaugeVec("delivered", "1 if the last report reached Messages, by channel.", "channel"),
		duration:    gauge("run_duration_seconds", "Wall time of the last run."),
		lastRun:     gauge("last_run_timestamp_seconds", "Unix time the last run finished."),
	}
	e.reg.MustRegister(
		e.healthScore, e.problems, e.hosts, e.versions, e.gateways, e.synthetic,
		e.issues, e.reportKind, e.delivered, e.duration, e.lastRun,
	)
	return e
}

// Registry exposes the underlying registry for gathering.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// result lists the gauges derived from the analysis result. They carry no
// series unless the matching section was measured in the last run.
func (e *Exporter) result() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		e.healthScore, e.problems, e.hosts, e.versions, e.gateways, e.synthetic, e.issues,
	}
}

// Observe records a run. Result gauges are only set when the analysis
// completed; skipped sections are left unset.
func (e *Exporter) Observe(r Run) {
	for _, g := range e.result() {
		g.Reset()
	}

	e.reportKind.Reset()
	e.reportKind.WithLabelValues(r.Kind).Set(1)

	e.delivered.Reset()
	if r.Channel != "" {
		e.delivered.WithLabelValues(r.Channel).Set(1)
	} else {
		e.delivered.WithLabelValues("none").Set(0)
	}

	e.duration.Set(r.Duration.Seconds())
	e.lastRun.Set(float64(r.Finished.Unix()))

	res := r.Result
	if res == nil {
		return
	}
	e.healthScore.WithLabelValues().Set(float64(res.Summary.HealthScore))
	e.issues.WithLabelValues().Set(float64(res.Summary.IssuesCount))
	if p := res.Problems; !p.Skipped {
		e.problems.WithLabelValues("critical").Set(float64(p.Critical))
		e.problems.WithLabelValues("warning").Set(float64(p.Warnings))
		e.problems.WithLabelValues("total").Set(float64(p.Total))
	}
	if f := res.Fleet; !f.Skipped {
		e.hosts.WithLabelValues().Set(float64(f.TotalHosts))
		e.versions.WithLabelValues().Set(float64(f.VersionCount))
	}
	if g := res.Gateways; !g.Skipped {
		e.gateways.WithLabelValues("connected").Set(float64(g.Connected))
		e.gateways.WithLabelValues("offline").Set(float64(g.Offline))
	}
	if s := res.Synthetic; !s.Skipped {
		e.synthetic.WithLabelValues("enabled").Set(float64(s.Enabled))
		e.synthetic.WithLabelValues("disabled").Set(float64(s.Disabled))
	}
}

// WriteTextfile atomically replaces path with the current metrics.
func (e *Exporter) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("metrics: mkdir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, e.reg); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
