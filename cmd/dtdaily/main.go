package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "v0.3.0"

var (
	settingsPath string
	envFilePath  string
)

var rootCmd = &cobra.Command{
	Use:   "dtdaily",
	Short: "Dynatrace daily health report over iMessage",
	Long: "dtdaily polls a Dynatrace tenant, scores the environment's health and sends a\n" +
		"short report through macOS Messages. Schedule `dtdaily run` once a day.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dtdaily " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "YAML settings file (default ~/dynatrace_agent/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFilePath, "env-file", "", "KEY=VALUE credentials file (default ~/dynatrace_agent/config.env)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
