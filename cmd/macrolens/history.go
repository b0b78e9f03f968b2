package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/storage/history"
	"github.com/spf13/cobra"
)

var (
	historyRegime string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history [report-id]",
	Short: "List stored reports or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyRegime, "regime", "", "only reports with this global regime")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of reports")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "report format when showing one: text or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.Storage.History.DSN, cfg.Storage.History.MemoryCapacity)
	if err != nil {
		return fmt.Errorf("opening report history: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		rep, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return writeReport(out, rep, historyFormat)
	}

	reports, err := store.List(ctx, history.ListFilter{
		GlobalRegime: core.GlobalRegime(historyRegime),
		Limit:        historyLimit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENERATED\tREGIME\tCONFIDENCE\tTILT")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%+.3f\n",
			r.ID, r.GeneratedAt.Format("2006-01-02 15:04"), r.Fusion.GlobalRegime,
			r.Fusion.IntegrationConfidence, r.Fusion.WeightedTilt)
	}
	return tw.Flush()
}
