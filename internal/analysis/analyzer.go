// Package analysis turns raw Dynatrace collections into the daily health result.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lyndonlyu/dtdaily/internal/dynatrace"
)

// Source is the read side of the Dynatrace API the analyzer needs.
type Source interface {
	Problems(ctx context.Context, hours int) (dynatrace.ProblemList, error)
	Hosts(ctx context.Context) (dynatrace.EntityList, error)
	ActiveGates(ctx context.Context) (dynatrace.ActiveGateList, error)
	SyntheticMonitors(ctx context.Context) (dynatrace.SyntheticMonitorList, error)
}

// Options selects the checks to run.
type Options struct {
	LookbackHours  int
	CheckProblems  bool
	CheckFleet     bool
	CheckGateways  bool
	CheckSynthetic bool
}

type Analyzer struct {
	src    Source
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func New(src Source, opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{src: src, opts: opts, logger: logger, now: time.Now}
}

// Run executes the enabled checks in order and summarizes them. Source errors
// are returned unhandled.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	a.logger.Info("Starting architecture analysis...")

	res := &Result{
		Timestamp:     a.now(),
		LookbackHours: a.opts.LookbackHours,
	}
	var issues []string

	if a.opts.CheckProblems {
		list, err := a.src.Problems(ctx, a.opts.LookbackHours)
		if err != nil {
			return nil, fmt.Errorf("analysis: problems: %w", err)
		}
		summary, found := CheckProblems(list.Problems)
		res.Problems = summary
		issues = append(issues, found...)
	} else {
		res.Problems = ProblemSummary{Skipped: true}
	}

	if a.opts.CheckFleet {
		list, err := a.src.Hosts(ctx)
		if err != nil {
			return nil, fmt.Errorf("analysis: hosts: %w", err)
		}
		summary, found := CheckFleet(list.Entities)
		res.Fleet = summary
		issues = append(issues, found...)
	} else {
		res.Fleet = FleetSummary{Skipped: true}
	}

	if a.opts.CheckGateways {
		list, err := a.src.ActiveGates(ctx)
		if err != nil {
			return nil, fmt.Errorf("analysis: activegates: %w", err)
		}
		summary, found := CheckGateways(list.ActiveGates)
		res.Gateways = summary
		issues = append(issues, found...)
	} else {
		res.Gateways = GatewaySummary{Skipped: true}
	}

	if a.opts.CheckSynthetic {
		list, err := a.src.SyntheticMonitors(ctx)
		if err != nil {
			return nil, fmt.Errorf("analysis: synthetic monitors: %w", err)
		}
		res.Synthetic = CheckSynthetic(list.Monitors)
	} else {
		res.Synthetic = SyntheticSummary{Skipped: true}
	}

	res.Summary = Summarize(res.Problems, res.Gateways, issues)
	a.logger.Info("Analysis complete",
		"score", res.Summary.HealthScore,
		"status", res.Summary.Status.String(),
		"issues", res.Summary.IssuesCount)
	return res, nil
}
