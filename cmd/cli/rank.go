package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"battery-arbitrage/internal/analysis"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/dispatch"
)

var rankCmd = &cobra.Command{
	Use:     "rank",
	Short:   "Rank regions by perfect-foresight revenue",
	Example: `  cli rank --data prices/   # every .csv/.json in the directory`,
	RunE:    runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	byRegion, err := data.LoadRegions(data.SplitPaths(dataPaths), cfg.Location())
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	pc := analysis.DefaultPotentialConfig()
	pc.Battery = dispatch.ParamsFromBattery(cfg.Battery.ToModelParams())
	pc.Classifier = cfg.Classifier
	pc.Filter = cfg.Filter

	ranked, err := analysis.RankByExactRevenue(context.Background(), byRegion, cfg.Period(), pc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %-10s %-8s %-10s %-15s %-12s %-12s %-8s\n", "rank", "region", "count", "p95-p05", "min/max", "exact$", "lots$", "capture")
	for i, r := range ranked {
		fmt.Fprintf(out,
			"%-4d %-10s %-8d %-10.2f %-7.1f/%-7.1f %-12.2f %-12.2f %-8.3f\n",
			i+1,
			r.Region,
			r.Count,
			r.SpreadP95P05,
			r.MinPrice,
			r.MaxPrice,
			r.ExactRevenue,
			r.HeuristicRevenue,
			r.Capture,
		)
	}
	return nil
}
