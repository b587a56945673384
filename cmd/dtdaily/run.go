package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lyndonlyu/dtdaily/internal/agent"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's report and deliver it",
	Long: "Generate the daily report and send it through Messages. When delivery fails the\n" +
		"report is saved under the reports directory. Meant to be run by cron or launchd.",
	RunE: runDaily,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := openLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := agent.New(cfg, logger).Run(ctx); err != nil {
		if agent.IsLocked(err) {
			return fmt.Errorf("another dtdaily run is in progress: %w", err)
		}
		return err
	}
	return nil
}
