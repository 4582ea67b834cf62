package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/logger"
)

var (
	sweepWindows []int
	sweepLowers  []float64
	sweepUppers  []float64
	sweepTop     int
	parallel     int
)

var sweepCmd = &cobra.Command{
	Use:     "sweep",
	Short:   "Grid-search classifier window and percentile band for the configured strategy",
	Example: `  cli sweep --data examples/sample_data.csv --windows 6,10,16 --lowers 0.2,0.25,0.3 --uppers 0.7,0.75,0.8`,
	RunE:    runSweep,
}

func init() {
	sweepCmd.Flags().IntSliceVar(&sweepWindows, "windows", nil, "classifier window lengths")
	sweepCmd.Flags().Float64SliceVar(&sweepLowers, "lowers", nil, "lower percentiles")
	sweepCmd.Flags().Float64SliceVar(&sweepUppers, "uppers", nil, "upper percentiles")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "print only the best N (0=all)")
	sweepCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "max runs in flight (0=GOMAXPROCS)")
	sweepCmd.Flags().IntVarP(&limitPeriods, "limit", "n", 0, "limit to first N periods (0=all)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	series, err := loadSeries(cfg)
	if err != nil {
		return err
	}

	grid := backtest.Grid{Windows: sweepWindows, Lowers: sweepLowers, Uppers: sweepUppers}
	jobs := grid.Jobs(cfg.Strategy, cfg.StrategyInputs(series.Prices()), cfg.Battery.ToModelParams())
	if len(jobs) == 0 {
		return fmt.Errorf("sweep grid is empty (every lower is above every upper)")
	}

	engine := backtest.New(backtest.WithPeriod(cfg.Period()), backtest.WithLogger(logger.New("backtest")))
	results, err := engine.RunAll(context.Background(), series, jobs, parallel)
	if err != nil {
		return err
	}
	backtest.BestFirst(results)
	if sweepTop > 0 && sweepTop < len(results) {
		results = results[:sweepTop]
	}
	printResults(cmd.OutOrStdout(), results)
	return nil
}
