package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lyndonlyu/dtdaily/internal/history"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 14, "Number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled in the settings file")
	}
	return history.Open(cfg.History.Path)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.List(historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		out, err := history.FormatRunListJSON(runs)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), history.FormatRunList(runs, time.Now()))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.Get(args[0])
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("no run with id %q", args[0])
	}
	if err != nil {
		return err
	}
	out, err := history.FormatRunListJSON([]history.Run{run})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
