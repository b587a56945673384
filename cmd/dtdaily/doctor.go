package main

import (
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/lyndonlyu/dtdaily/internal/health"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and delivery prerequisites",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r := health.Evaluate(cfg, exec.LookPath)
	out := cmd.OutOrStdout()

	if doctorJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("doctor: json marshal: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, styleBanner.Render("dtdaily doctor"))
	fmt.Fprintln(out)
	for _, src := range cfg.Sources {
		fmt.Fprintln(out, styleDim.Render("config: "+src))
	}
	if len(cfg.Sources) > 0 {
		fmt.Fprintln(out)
	}
	for _, c := range r.Components {
		mark := styleSuccess.Render("OK  ")
		if !c.Healthy {
			mark = styleError.Render("FAIL")
			if c.Category == health.Optional {
				mark = styleWarn.Render("WARN")
			}
		}
		fmt.Fprintf(out, "%s %-12s %s\n", mark, c.Name, styleDim.Render(c.Detail))
	}
	fmt.Fprintf(out, "\nStatus: %s\n", renderLevel(r.Level))
	return nil
}
