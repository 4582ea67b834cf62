package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/logger"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/strategy"
)

var (
	outPath      string
	limitPeriods int
	strategyName string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one strategy over a price file and write the ledger CSV",
	RunE:  runBacktest,
	Example: `  cli backtest --data examples/sample_data.csv --config examples/config.yaml --out results/dispatch.csv
  cli backtest --data prices.json --strategy exact`,
}

func init() {
	backtestCmd.Flags().StringVarP(&outPath, "out", "o", "results/dispatch.csv", "output CSV path")
	backtestCmd.Flags().IntVarP(&limitPeriods, "limit", "n", 0, "limit to first N periods (0=all)")
	backtestCmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "override the configured strategy")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if strategyName != "" {
		cfg.Strategy = strategy.Spec{Name: strategyName}
	}

	series, err := loadSeries(cfg)
	if err != nil {
		return err
	}

	res, err := runOne(cfg, series)
	if err != nil {
		return err
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := backtest.WriteLedgerCSV(outPath, res.Ledger); err != nil {
		return err
	}

	sum := res.Summary()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(res.Ledger), outPath)
	fmt.Fprintf(out, "Strategy=%s Revenue=$%.2f Final energy=%.3f MWh\n", res.Strategy, res.TotalRevenue, res.FinalEnergy)
	fmt.Fprintf(out, "Charged %.1f MWh over %d periods, discharged %.1f MWh over %d periods\n",
		sum.ChargedMWh, sum.ChargePeriods, sum.DischargedMWh, sum.DischargePeriods)
	return nil
}

// loadSeries loads --data and keeps a single region, trimmed to -n.
func loadSeries(cfg *config.Config) (model.PriceSeries, error) {
	byRegion, err := data.LoadRegions(data.SplitPaths(dataPaths), cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	regions := data.Regions(byRegion)
	if len(regions) == 0 {
		return nil, fmt.Errorf("no prices in %s", dataPaths)
	}
	if len(regions) > 1 {
		log := logger.New("cli")
		log.Warn().Strs("regions", regions).Str("using", regions[0]).Msg("multiple regions loaded")
	}
	series := byRegion[regions[0]]
	if limitPeriods > 0 && limitPeriods < len(series) {
		series = series[:limitPeriods]
	}
	return series, nil
}

func runOne(cfg *config.Config, series model.PriceSeries) (*backtest.Result, error) {
	batt, err := cfg.Battery.NewBattery()
	if err != nil {
		return nil, err
	}
	strat, err := strategy.Build(cfg.Strategy, cfg.StrategyInputs(series.Prices()))
	if err != nil {
		return nil, err
	}
	engine := backtest.New(backtest.WithPeriod(cfg.Period()), backtest.WithLogger(logger.New("backtest")))
	return engine.Run(series, batt, strat)
}
