package health

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lyndonlyu/dtdaily/internal/config"
	"github.com/lyndonlyu/dtdaily/internal/dynatrace"
	"github.com/lyndonlyu/dtdaily/internal/filelock"
	"github.com/lyndonlyu/dtdaily/internal/history"
)

// CheckCredentials fails while the tenant URL or token is a placeholder.
func CheckCredentials(cfg *config.Config) ComponentStatus {
	cs := ComponentStatus{Name: "credentials", Category: Critical}
	if !cfg.CredentialsConfigured() {
		cs.Detail = fmt.Sprintf("Placeholder tenant URL or API token, edit %s", cfg.EnvFile)
		return cs
	}
	cs.Healthy = true
	cs.Detail = "Tenant URL and API token set"
	return cs
}

// CheckTenantURL validates the tenant URL the way the API client does.
func CheckTenantURL(cfg *config.Config) ComponentStatus {
	cs := ComponentStatus{Name: "tenant_url", Category: Critical}
	c, err := dynatrace.NewClient(cfg.Dynatrace.TenantURL, "", 0, nil)
	if err != nil {
		cs.Detail = err.Error()
		return cs
	}
	cs.Healthy = true
	cs.Detail = c.BaseURL()
	return cs
}

// CheckRecipient fails while the Messages recipient is a placeholder. The
// agent still runs, printing the report instead of sending it.
func CheckRecipient(cfg *config.Config) ComponentStatus {
	cs := ComponentStatus{Name: "recipient", Category: Important}
	if !cfg.RecipientConfigured() {
		cs.Detail = "Placeholder recipient, reports will be printed and saved only"
		return cs
	}
	cs.Healthy = true
	cs.Detail = cfg.Notify.Recipient
	return cs
}

// CheckOsascript reports whether the AppleScript runner is on PATH.
func CheckOsascript(lookPath func(string) (string, error)) ComponentStatus {
	cs := ComponentStatus{Name: "osascript", Category: Important}
	p, err := lookPath("osascript")
	if err != nil {
		cs.Detail = "osascript not found, delivery will fall back to backup files"
		return cs
	}
	cs.Healthy = true
	cs.Detail = p
	return cs
}

// CheckReportsDir checks the backup directory. A missing directory is
// fine as long as it can be created.
func CheckReportsDir(dir string) ComponentStatus {
	return checkDirWritable(dir, "reports_dir", Important)
}

// CheckLogDir checks the directory holding the log file.
func CheckLogDir(logFile string) ComponentStatus {
	return checkDirWritable(filepath.Dir(logFile), "log_dir", Important)
}

// CheckLock reports a lock still held by a live process.
func CheckLock(path string) ComponentStatus {
	cs := ComponentStatus{Name: "run_lock", Category: Optional}
	meta, err := filelock.ReadMeta(path)
	switch {
	case err != nil:
		cs.Healthy = true
		cs.Detail = "Not held"
	case filelock.IsStale(path):
		cs.Healthy = true
		cs.Detail = fmt.Sprintf("Stale lock from PID %d", meta.PID)
	default:
		cs.Detail = fmt.Sprintf("Held by PID %d since %s", meta.PID, meta.AcquiredAt)
	}
	return cs
}

// CheckHistory opens the run history database.
func CheckHistory(cfg config.HistoryConfig) ComponentStatus {
	cs := ComponentStatus{Name: "history", Category: Optional}
	if !cfg.Enabled {
		cs.Healthy = true
		cs.Detail = "Disabled"
		return cs
	}
	db, err := history.Open(cfg.Path)
	if err != nil {
		cs.Detail = err.Error()
		return cs
	}
	defer db.Close()
	cs.Healthy = true
	cs.Detail = cfg.Path
	return cs
}

func checkDirWritable(dir, name, category string) ComponentStatus {
	cs := ComponentStatus{Name: name, Category: category}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		parent := filepath.Dir(dir)
		for {
			if _, perr := os.Stat(parent); perr == nil || parent == filepath.Dir(parent) {
				break
			}
			parent = filepath.Dir(parent)
		}
		if !writable(parent) {
			cs.Detail = fmt.Sprintf("Missing and %s is not writable", parent)
			return cs
		}
		cs.Healthy = true
		cs.Detail = "Will be created"
		return cs
	case err != nil:
		cs.Detail = fmt.Sprintf("Stat error: %v", err)
		return cs
	case !info.IsDir():
		cs.Detail = "Not a directory"
		return cs
	}

	if !writable(dir) {
		cs.Detail = "Not writable"
		return cs
	}
	cs.Healthy = true
	cs.Detail = "Writable"
	return cs
}

func writable(dir string) bool {
	tmp := filepath.Join(dir, ".dtdaily_check_tmp")
	if err := os.WriteFile(tmp, []byte("ok"), 0644); err != nil {
		return false
	}
	os.Remove(tmp)
	return true
}

// Evaluate runs every check against cfg.
func Evaluate(cfg *config.Config, lookPath func(string) (string, error)) *Report {
	return NewReport([]ComponentStatus{
		CheckCredentials(cfg),
		CheckTenantURL(cfg),
		CheckRecipient(cfg),
		CheckOsascript(lookPath),
		CheckReportsDir(cfg.Notify.ReportsDir),
		CheckLogDir(cfg.Logging.File),
		CheckLock(cfg.LockFile),
		CheckHistory(cfg.History),
	})
}
