package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/strategy"
)

// Job is one independent backtest: a strategy built fresh from Build, run on
// its own battery.
type Job struct {
	Label         string
	Battery       model.BatteryParams
	InitialEnergy float64 // MWh stored at the first period
	Build         func() (strategy.Strategy, error)
}

// JobResult pairs a job label with its outcome.
type JobResult struct {
	Label  string
	Result *Result
}

// RunAll executes jobs in parallel with at most limit in flight (GOMAXPROCS
// when limit <= 0). Results keep job order. The first error cancels the rest.
func (e *Engine) RunAll(ctx context.Context, series model.PriceSeries, jobs []Job, limit int) ([]JobResult, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]JobResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			strat, err := job.Build()
			if err != nil {
				return fmt.Errorf("%s: build strategy: %w", job.Label, err)
			}
			batt, err := model.NewBattery(job.Battery, job.InitialEnergy)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Label, err)
			}
			res, err := e.Run(series, batt, strat)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Label, err)
			}
			out[i] = JobResult{Label: job.Label, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BestFirst sorts results by total revenue, highest first.
func BestFirst(results []JobResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Result.TotalRevenue > results[j].Result.TotalRevenue
	})
}

// Grid is a classifier parameter sweep. Empty axes keep the base value.
type Grid struct {
	Windows []int
	Lowers  []float64
	Uppers  []float64
}

// Jobs expands the grid into one job per valid combination, each building
// spec against a copy of in with the combination applied.
func (g Grid) Jobs(spec strategy.Spec, in strategy.Inputs, battery model.BatteryParams) []Job {
	base := in.Classifier
	windows := orDefault(g.Windows, base.Window)
	lowers := orDefault(g.Lowers, base.Lower)
	uppers := orDefault(g.Uppers, base.Upper)

	var jobs []Job
	for _, w := range windows {
		for _, lo := range lowers {
			for _, hi := range uppers {
				if lo > hi {
					continue
				}
				cfg := in
				cfg.Classifier.Window = w
				cfg.Classifier.Lower = lo
				cfg.Classifier.Upper = hi
				jobs = append(jobs, Job{
					Label:         fmt.Sprintf("%s window=%d lower=%.2f upper=%.2f", spec.Name, w, lo, hi),
					Battery:       battery,
					InitialEnergy: in.InitialEnergy,
					Build:         func() (strategy.Strategy, error) { return strategy.Build(spec, cfg) },
				})
			}
		}
	}
	return jobs
}

func orDefault[T any](xs []T, def T) []T {
	if len(xs) == 0 {
		return []T{def}
	}
	return xs
}
