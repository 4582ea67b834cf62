package analysis

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
	"battery-arbitrage/internal/strategy"
)

// ArbitragePotential is a region-level summary you can use for ranking.
// It combines raw price statistics with the revenue the configured battery
// earns under the exact LP and under the lot-tracking heuristic.
type ArbitragePotential struct {
	Region string `json:"region"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Count int `json:"count"`

	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	MeanPrice   float64 `json:"mean_price"`
	StdDevPrice float64 `json:"stddev_price"`
	P05Price    float64 `json:"p05_price"`
	P95Price    float64 `json:"p95_price"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// ExactRevenue is the perfect-foresight LP revenue ($).
	ExactRevenue float64 `json:"exact_revenue"`
	// HeuristicRevenue is what the lots strategy realises on the same prices.
	HeuristicRevenue float64 `json:"heuristic_revenue"`
	// Capture is HeuristicRevenue / ExactRevenue, 0 when the bound is not positive.
	Capture float64 `json:"capture"`
}

// PotentialConfig is the battery and signal setup the revenues are computed with.
type PotentialConfig struct {
	Battery    dispatch.Params
	Classifier signal.Classifier
	Filter     signal.FilterParams
	ChunkSize  int
}

func DefaultPotentialConfig() PotentialConfig {
	return PotentialConfig{
		Battery:    dispatch.DefaultParams(),
		Classifier: signal.DefaultClassifier(),
		Filter:     signal.DefaultFilterParams(),
		ChunkSize:  48,
	}
}

func ComputePotential(series model.PriceSeries, period time.Duration, cfg PotentialConfig) (ArbitragePotential, error) {
	p := ArbitragePotential{}
	if len(series) == 0 {
		return p, nil
	}
	p.Region = series.Region()
	p.Count = len(series)
	p.Start = series[0].Start
	p.End = series.End(period)

	prices := series.Prices()
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	p.MinPrice = floats.Min(prices)
	p.MaxPrice = floats.Max(prices)
	p.MeanPrice, p.StdDevPrice = stat.PopMeanStdDev(prices, nil)
	p.P05Price = percentileSorted(sorted, 0.05)
	p.P95Price = percentileSorted(sorted, 0.95)
	p.SpreadP95P05 = p.P95Price - p.P05Price

	exact, err := strategy.NewExactStrategy(prices, cfg.Battery, strategy.ExactParams{ChunkSize: cfg.ChunkSize})
	if err != nil {
		return p, fmt.Errorf("exact revenue for %q: %w", p.Region, err)
	}
	if p.ExactRevenue, err = planRevenue(exact.Plan(), prices, cfg.Battery); err != nil {
		return p, err
	}

	filter := cfg.Filter
	lots, err := strategy.NewLotsStrategy(prices, cfg.Battery, strategy.LotsParams{
		Labeler: cfg.Classifier,
		Filter:  &filter,
	})
	if err != nil {
		return p, fmt.Errorf("heuristic revenue for %q: %w", p.Region, err)
	}
	if p.HeuristicRevenue, err = planRevenue(lots.Plan(), prices, cfg.Battery); err != nil {
		return p, err
	}
	if p.ExactRevenue > 0 {
		p.Capture = p.HeuristicRevenue / p.ExactRevenue
	}
	return p, nil
}

func percentileSorted(sorted []float64, q float64) float64 {
	v, err := signal.Quantile(signal.MethodLinear, sorted, q)
	if err != nil {
		return 0
	}
	return v
}

func planRevenue(raw, prices []float64, params dispatch.Params) (float64, error) {
	s, err := dispatch.PostProcess(raw, params)
	if err != nil {
		return 0, err
	}
	return s.TotalRevenue(prices, params.MarginalLossFactor)
}
