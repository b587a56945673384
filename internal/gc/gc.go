// Package gc prunes old backup reports and run history.
package gc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Policy defines retention rules. Zero values disable the matching rule.
type Policy struct {
	MaxAgeDays int  // delete backups and history rows older than N days
	MaxReports int  // keep at most N backup reports
	DryRun     bool // report without deleting
}

type Result struct {
	ReportsRemoved int   `json:"reports_removed"`
	RunsPruned     int   `json:"runs_pruned"`
	BytesFreed     int64 `json:"bytes_freed"`
}

func (r *Result) String() string {
	return fmt.Sprintf("%d reports removed (%s), %d history rows pruned",
		r.ReportsRemoved, humanize.Bytes(uint64(r.BytesFreed)), r.RunsPruned)
}

// Pruner deletes history older than a cutoff and reports how many rows went.
type Pruner interface {
	DeleteBefore(cutoff time.Time) (int, error)
}

const reportLayout = "20060102_150405"

type reportFile struct {
	path string
	ts   time.Time
	size int64
}

// Run applies policy to the backup files in reportsDir and, when history is
// non-nil, to the run history. Files not named like a backup are left alone.
func Run(reportsDir string, history Pruner, policy Policy, now time.Time) (*Result, error) {
	result := &Result{}
	if err := cleanReports(reportsDir, policy, now, result); err != nil {
		return result, fmt.Errorf("gc: reports: %w", err)
	}
	if history != nil && policy.MaxAgeDays > 0 && !policy.DryRun {
		n, err := history.DeleteBefore(now.AddDate(0, 0, -policy.MaxAgeDays))
		if err != nil {
			return result, fmt.Errorf("gc: history: %w", err)
		}
		result.RunsPruned = n
	}
	return result, nil
}

func cleanReports(dir string, policy Policy, now time.Time, result *Result) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var reports []reportFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		stem := strings.TrimSuffix(name, ".txt")
		if len(stem) > len(reportLayout) && stem[len(reportLayout)] == '_' {
			stem = stem[:len(reportLayout)] // same-second backup, e.g. 20261018_070509_1
		}
		ts, err := time.ParseInLocation(reportLayout, stem, now.Location())
		if err != nil {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		reports = append(reports, reportFile{path: filepath.Join(dir, name), ts: ts, size: size})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ts.After(reports[j].ts)
	})

	cutoff := now.AddDate(0, 0, -policy.MaxAgeDays)
	for i, r := range reports {
		tooMany := policy.MaxReports > 0 && i >= policy.MaxReports
		tooOld := policy.MaxAgeDays > 0 && r.ts.Before(cutoff)
		if !tooMany && !tooOld {
			continue
		}
		if !policy.DryRun {
			if err := os.Remove(r.path); err != nil {
				return err
			}
		}
		result.ReportsRemoved++
		result.BytesFreed += r.size
	}
	return nil
}
