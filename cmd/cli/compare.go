package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/logger"
	"battery-arbitrage/internal/strategy"
)

var compareStrategies []string

var compareCmd = &cobra.Command{
	Use:     "compare",
	Short:   "Run several strategies on the same prices, best first",
	Example: `  cli compare --data examples/sample_data.csv --strategies lots,formula,threshold,exact`,
	RunE:    runCompare,
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareStrategies, "strategies", []string{"lots", "formula", "threshold", "exact"}, "strategy names")
	compareCmd.Flags().IntVarP(&limitPeriods, "limit", "n", 0, "limit to first N periods (0=all)")
	compareCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "max runs in flight (0=GOMAXPROCS)")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	series, err := loadSeries(cfg)
	if err != nil {
		return err
	}

	in := cfg.StrategyInputs(series.Prices())
	jobs := make([]backtest.Job, 0, len(compareStrategies))
	for _, name := range compareStrategies {
		spec := cfg.Strategy
		if spec.Name != name {
			spec = strategy.Spec{Name: name}
		}
		jobs = append(jobs, backtest.Job{
			Label:         name,
			Battery:       cfg.Battery.ToModelParams(),
			InitialEnergy: cfg.Battery.InitialEnergyMWh,
			Build:         func() (strategy.Strategy, error) { return strategy.Build(spec, in) },
		})
	}

	engine := backtest.New(backtest.WithPeriod(cfg.Period()), backtest.WithLogger(logger.New("backtest")))
	results, err := engine.RunAll(context.Background(), series, jobs, parallel)
	if err != nil {
		return err
	}
	backtest.BestFirst(results)
	printResults(cmd.OutOrStdout(), results)
	return nil
}

func printResults(out io.Writer, results []backtest.JobResult) {
	fmt.Fprintf(out, "%-4s %-44s %-14s %-10s %-10s\n", "rank", "run", "revenue$", "charged", "discharged")
	for i, r := range results {
		sum := r.Result.Summary()
		fmt.Fprintf(out, "%-4d %-44s %-14.2f %-10.1f %-10.1f\n",
			i+1,
			r.Label,
			r.Result.TotalRevenue,
			sum.ChargedMWh,
			sum.DischargedMWh,
		)
	}
}
