package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/newthinker/macrolens/internal/dataset"
	"github.com/newthinker/macrolens/internal/report"
	"github.com/spf13/cobra"
)

var (
	analyzeInputs dataset.Files
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis over input files",
	Long: `Run the domestic, market and sentiment sources over the given files and
print the fused report. Observations are date,indicator,value CSV rows, bars
are date,symbol,close CSV rows, and a snapshot is a JSON document holding both.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInputs.Observations, "observations", "", "macro observations CSV")
	analyzeCmd.Flags().StringVar(&analyzeInputs.Bars, "bars", "", "price bars CSV")
	analyzeCmd.Flags().StringVar(&analyzeInputs.Snapshot, "snapshot", "", "JSON snapshot")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format: text or json")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "text" && analyzeFormat != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", analyzeFormat)
	}
	if analyzeInputs.Empty() {
		return fmt.Errorf("at least one of --observations, --bars or --snapshot is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	snap, err := analyzeInputs.Load()
	if err != nil {
		return fmt.Errorf("loading inputs: %w", err)
	}

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := rt.app.Analyze(ctx, snap)
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), rep, analyzeFormat)
}

func writeReport(w io.Writer, rep *report.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return report.WriteText(w, rep)
}

