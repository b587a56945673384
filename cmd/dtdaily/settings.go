package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyndonlyu/dtdaily/internal/dynatrace"
)

var settingsCmd = &cobra.Command{
	Use:   "settings <schema-id>",
	Short: "Print the settings objects of a schema",
	Long:  "Print the settings 2.0 objects for a schema, e.g. builtin:alerting.profile.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.CredentialsConfigured() {
		return errors.New("dynatrace credentials not configured in " + cfg.EnvFile)
	}
	logger, closer, err := openLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := dynatrace.NewClient(cfg.Dynatrace.TenantURL, cfg.Dynatrace.APIToken, cfg.Dynatrace.Timeout, logger)
	if err != nil {
		return err
	}

	stop := startSpinner("Fetching " + args[0] + "...")
	list, err := client.Settings(context.Background(), args[0])
	stop()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: json marshal: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	if len(list.Items) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), styleDim.Render("No objects returned; check "+cfg.Logging.File+" for request errors."))
	}
	return nil
}
