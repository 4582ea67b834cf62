package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/strategy"
)

type Engine struct {
	period time.Duration
	log    zerolog.Logger
}

type Option func(*Engine)

// WithPeriod sets the interval length used for row end times.
func WithPeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.period = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(opts ...Option) *Engine {
	e := &Engine{period: model.DefaultPeriod, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a backtest over a single-region price series. Every strategy
// goes through the same battery physics, so an infeasible request fails the
// run instead of being clipped.
func (e *Engine) Run(series model.PriceSeries, batt *model.Battery, strat strategy.Strategy) (*Result, error) {
	if batt == nil {
		return nil, errors.New("battery is nil")
	}
	if strat == nil {
		return nil, errors.New("strategy is nil")
	}
	if len(series) == 0 {
		return nil, errors.New("no periods")
	}

	var labels []model.Label
	if l, ok := strat.(strategy.Labeled); ok {
		labels = l.Labels()
	}

	opening := batt.State.EnergyMWh
	ledger := make([]LedgerRow, 0, len(series))
	raw := make([]float64, 0, len(series))
	cum := 0.0

	for idx, pp := range series {
		req := strat.Decide(strategy.Context{
			Index:   idx,
			Period:  pp,
			Battery: batt,
		})

		res, err := batt.ApplyDispatch(pp.Price, req)
		if err != nil {
			return nil, fmt.Errorf("period %d apply dispatch: %w", idx, err)
		}
		cum += res.Revenue
		raw = append(raw, res.RawMWh)

		row := LedgerRow{
			Index: idx,

			Start: pp.Start,
			End:   pp.Start.Add(e.period),

			Region: pp.Region,
			Price:  pp.Price,

			Action: model.ActionFromEnergy(res.RawMWh),

			RawMWh:            res.RawMWh,
			MarketDispatchMWh: res.MarketDispatchMWh,

			OpeningMWh: res.OpeningMWh,
			ClosingMWh: res.ClosingMWh,

			Revenue:    res.Revenue,
			CumRevenue: cum,
		}
		if idx < len(labels) {
			row.Label = labels[idx]
		}
		ledger = append(ledger, row)
	}

	sched, err := dispatch.PostProcessFrom(raw, dispatch.ParamsFromBattery(batt.Params), opening)
	if err != nil {
		return nil, fmt.Errorf("post-process %s: %w", strat.Name(), err)
	}

	e.log.Info().
		Str("strategy", strat.Name()).
		Str("region", series.Region()).
		Int("periods", len(series)).
		Float64("revenue", cum).
		Msg("backtest complete")

	return &Result{
		ID:           uuid.NewString(),
		Strategy:     strat.Name(),
		Region:       series.Region(),
		Ledger:       ledger,
		Schedule:     sched,
		TotalRevenue: cum,
		FinalEnergy:  batt.State.EnergyMWh,
	}, nil
}
