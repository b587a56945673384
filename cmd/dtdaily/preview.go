package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/lyndonlyu/dtdaily/internal/agent"
	"github.com/lyndonlyu/dtdaily/internal/report"
)

var (
	previewMarkdown bool
	previewJSON     bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate the report without sending it",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewMarkdown, "markdown", false, "Render the detailed Markdown report")
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "Print the analysis result as JSON")
	previewCmd.MarkFlagsMutuallyExclusive("markdown", "json")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := openLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	stop := startSpinner("Querying " + cfg.Dynatrace.TenantURL + "...")
	g := agent.New(cfg, logger).Generate(context.Background())
	stop()

	out := cmd.OutOrStdout()
	switch {
	case previewJSON:
		if g.Result == nil {
			return fmt.Errorf("no analysis result (%s report)", g.Kind)
		}
		data, err := json.MarshalIndent(g.Result, "", "  ")
		if err != nil {
			return fmt.Errorf("preview: json marshal: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case previewMarkdown && g.Result != nil:
		fmt.Fprintln(out, renderMarkdown(report.Markdown(g.Result)))
	default:
		if g.Result != nil {
			fmt.Fprintln(out, renderStatus(g.Result.Summary.Status))
		}
		fmt.Fprintln(out, g.Text)
	}
	return nil
}

func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}
