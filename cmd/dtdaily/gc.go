package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lyndonlyu/dtdaily/internal/gc"
	"github.com/lyndonlyu/dtdaily/internal/history"
)

var (
	gcDryRun  bool
	gcMaxAge  int
	gcMaxKeep int
	gcJSON    bool
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove old backup reports and run history",
	RunE:  runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "Report without deleting")
	gcCmd.Flags().IntVar(&gcMaxAge, "max-age-days", -1, "Override retention.max_age_days")
	gcCmd.Flags().IntVar(&gcMaxKeep, "max-reports", -1, "Override retention.max_reports")
	gcCmd.Flags().BoolVar(&gcJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	policy := gc.Policy{
		MaxAgeDays: cfg.Retention.MaxAgeDays,
		MaxReports: cfg.Retention.MaxReports,
		DryRun:     gcDryRun,
	}
	if gcMaxAge >= 0 {
		policy.MaxAgeDays = gcMaxAge
	}
	if gcMaxKeep >= 0 {
		policy.MaxReports = gcMaxKeep
	}

	var pruner gc.Pruner
	if cfg.History.Enabled {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		pruner = db
	}

	res, err := gc.Run(cfg.Notify.ReportsDir, pruner, policy, time.Now())
	if err != nil {
		return err
	}

	if gcJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("gc: json marshal: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	prefix := ""
	if gcDryRun {
		prefix = styleDim.Render("(dry run) ")
	}
	fmt.Fprintln(cmd.OutOrStdout(), prefix+res.String())
	return nil
}
