// Package agent runs the daily report end to end: generate, deliver, record.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lyndonlyu/dtdaily/internal/analysis"
	"github.com/lyndonlyu/dtdaily/internal/config"
	"github.com/lyndonlyu/dtdaily/internal/dynatrace"
	"github.com/lyndonlyu/dtdaily/internal/filelock"
	"github.com/lyndonlyu/dtdaily/internal/gc"
	"github.com/lyndonlyu/dtdaily/internal/history"
	"github.com/lyndonlyu/dtdaily/internal/metrics"
	"github.com/lyndonlyu/dtdaily/internal/notify"
	"github.com/lyndonlyu/dtdaily/internal/report"
)

var banner = strings.Repeat("=", 50)

// SourceFunc builds the API source for a normal report.
type SourceFunc func(cfg *config.Config, logger *slog.Logger) (analysis.Source, error)

// DynatraceSource is the production SourceFunc.
func DynatraceSource(cfg *config.Config, logger *slog.Logger) (analysis.Source, error) {
	c, err := dynatrace.NewClient(cfg.Dynatrace.TenantURL, cfg.Dynatrace.APIToken, cfg.Dynatrace.Timeout, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Generated is one generated report.
type Generated struct {
	Kind   string
	Text   string
	Result *analysis.Result // set for normal reports
	Err    error            // set for failure reports
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Report   Generated
	Delivery notify.Delivery
	Printed  bool // placeholder recipient: report went to stdout
	Duration time.Duration
}

type Agent struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   SourceFunc
	notifier *notify.Notifier
	stdout   io.Writer
	now      func() time.Time
}

// Option customizes an Agent.
type Option func(*Agent)

func WithSource(f SourceFunc) Option { return func(a *Agent) { a.source = f } }

func WithNotifier(n *notify.Notifier) Option { return func(a *Agent) { a.notifier = n } }

func WithStdout(w io.Writer) Option { return func(a *Agent) { a.stdout = w } }

func WithClock(now func() time.Time) Option { return func(a *Agent) { a.now = now } }

// New builds an agent. Without options it talks to Dynatrace and delivers
// through Messages, then the keystroke fallback.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		cfg:    cfg,
		logger: logger,
		source: DynatraceSource,
		stdout: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.notifier == nil {
		runner := notify.NewExecRunner(cfg.Notify.Timeout)
		a.notifier = notify.New(cfg.Notify.ReportsDir, logger,
			notify.NewMessagesChannel(runner),
			notify.NewKeystrokeChannel(runner))
	}
	return a
}

// Generate builds the report. It never fails: placeholder credentials yield
// the setup block without touching the API, and any error or panic on the
// normal path yields the failure block.
func (a *Agent) Generate(ctx context.Context) Generated {
	ts := a.now().In(a.cfg.Location())

	if !a.cfg.CredentialsConfigured() {
		a.logger.Warn("Dynatrace credentials not configured", "env_file", a.cfg.EnvFile)
		return Generated{Kind: history.KindUnconfigured, Text: report.Unconfigured(ts, a.cfg.EnvFile)}
	}

	res, err := a.analyze(ctx)
	if err != nil {
		a.logger.Error("Error generating report", "error", err)
		return Generated{Kind: history.KindFailure, Text: report.Failure(ts, err, a.cfg.Logging.File), Err: err}
	}
	res.Timestamp = ts
	return Generated{Kind: history.KindNormal, Text: report.Normal(res), Result: res}
}

func (a *Agent) analyze(ctx context.Context) (res *analysis.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	src, err := a.source(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	c := a.cfg.Checks
	return analysis.New(src, analysis.Options{
		LookbackHours:  a.cfg.Dynatrace.LookbackHours,
		CheckProblems:  c.Problems,
		CheckFleet:     c.OneAgent,
		CheckGateways:  c.Gateways,
		CheckSynthetic: c.Synthetic,
	}, a.logger).Run(ctx)
}

// Run performs one scheduled run. Delivery problems are logged, not returned;
// the error is non-nil only when another run holds the lock.
func (a *Agent) Run(ctx context.Context) (*Summary, error) {
	start := a.now()
	sum := &Summary{RunID: uuid.NewString()}

	a.logger.Info(banner)
	a.logger.Info("Dynatrace Daily Agent Started", "run_id", sum.RunID)
	a.logger.Info(banner)
	for _, src := range a.cfg.Sources {
		a.logger.Info("Loading config from " + src)
	}

	lock, err := filelock.Acquire(a.cfg.LockFile, sum.RunID)
	if err != nil {
		a.logger.Error("Another run is in progress", "lock", a.cfg.LockFile, "error", err)
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.logger.Warn("Release lock", "error", err)
		}
	}()

	sum.Report = a.Generate(ctx)
	a.logger.Info("Report generated:\n" + sum.Report.Text)

	if !a.cfg.RecipientConfigured() {
		a.logger.Warn("Messages recipient not configured - printing report only")
		path, err := a.notifier.Backup(sum.Report.Text)
		if err != nil {
			a.logger.Error("Save report", "error", err)
		}
		sum.Delivery.BackupPath = path
		sum.Printed = true
		fmt.Fprintf(a.stdout, "\n%s\n%s\n%s\n\n⚠️  Configure %s in %s to receive iMessage notifications\n",
			banner, sum.Report.Text, banner, config.EnvRecipient, a.cfg.EnvFile)
	} else {
		d, err := a.notifier.Deliver(ctx, a.cfg.Notify.Recipient, sum.Report.Text)
		if err != nil {
			a.logger.Error("Save report", "error", err)
		}
		sum.Delivery = d
		if d.Delivered() {
			a.logger.Info("Daily report sent successfully!", "channel", d.Channel)
		}
	}

	sum.Duration = a.now().Sub(start)
	a.record(sum)
	a.export(sum)
	a.sweep()

	a.logger.Info("Dynatrace Daily Agent Completed", "duration", sum.Duration.Round(time.Millisecond))
	return sum, nil
}

func (a *Agent) record(sum *Summary) {
	if !a.cfg.History.Enabled {
		return
	}
	db, err := history.Open(a.cfg.History.Path)
	if err != nil {
		a.logger.Warn("Open run history", "error", err)
		return
	}
	defer db.Close()

	run := history.Run{
		ID:         sum.RunID,
		StartedAt:  a.now().Add(-sum.Duration),
		Duration:   sum.Duration,
		Kind:       sum.Report.Kind,
		Channel:    sum.Delivery.Channel,
		BackupPath: sum.Delivery.BackupPath,
	}
	if res := sum.Report.Result; res != nil {
		run.Score = res.Summary.HealthScore
		run.Status = res.Summary.Status.String()
		run.Critical = res.Problems.Critical
		run.Warnings = res.Problems.Warnings
		run.Offline = res.Gateways.Offline
		run.Hosts = res.Fleet.TotalHosts
		run.Issues = res.Summary.IssuesCount
	}
	if sum.Report.Err != nil {
		run.Error = report.Truncate(sum.Report.Err.Error(), 500)
	}
	if err := db.Insert(run); err != nil {
		a.logger.Warn("Record run", "error", err)
	}
}

func (a *Agent) export(sum *Summary) {
	path := a.cfg.Metrics.TextfilePath
	if path == "" {
		return
	}
	e := metrics.NewExporter()
	e.Observe(metrics.Run{
		Kind:     sum.Report.Kind,
		Result:   sum.Report.Result,
		Channel:  sum.Delivery.Channel,
		Duration: sum.Duration,
		Finished: a.now(),
	})
	if err := e.WriteTextfile(path); err != nil {
		a.logger.Warn("Write metrics textfile", "error", err)
	}
}

// sweep applies the retention policy after the run has been recorded.
func (a *Agent) sweep() {
	var pruner gc.Pruner
	if a.cfg.History.Enabled {
		db, err := history.Open(a.cfg.History.Path)
		if err != nil {
			a.logger.Warn("Open run history", "error", err)
		} else {
			defer db.Close()
			pruner = db
		}
	}
	res, err := gc.Run(a.cfg.Notify.ReportsDir, pruner, gc.Policy{
		MaxAgeDays: a.cfg.Retention.MaxAgeDays,
		MaxReports: a.cfg.Retention.MaxReports,
	}, a.now())
	if err != nil {
		a.logger.Warn("Retention sweep", "error", err)
		return
	}
	if res.ReportsRemoved > 0 || res.RunsPruned > 0 {
		a.logger.Info("Retention sweep: " + res.String())
	}
}

// IsLocked reports whether err came from a concurrent run.
func IsLocked(err error) bool {
	return errors.Is(err, filelock.ErrLocked)
}
