package strategy

import (
	"fmt"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
)

// LotsStrategy runs the lot-tracking dispatch optimizer over labels produced
// by a classifier and, optionally, the signal filter.
type LotsStrategy struct {
	planned
	labels []model.Label
}

type LotsParams struct {
	Labeler signal.Labeler
	// Filter is applied to the labels when non-nil.
	Filter *signal.FilterParams
	Opts   []dispatch.Option
}

func NewLotsStrategy(prices []float64, params dispatch.Params, cfg LotsParams) (*LotsStrategy, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices")
	}
	labels, err := classify(prices, cfg.Labeler, cfg.Filter)
	if err != nil {
		return nil, err
	}
	opt, err := dispatch.New(params, cfg.Opts...)
	if err != nil {
		return nil, err
	}
	raw, err := opt.Plan(prices, labels)
	if err != nil {
		return nil, fmt.Errorf("plan dispatch: %w", err)
	}
	return &LotsStrategy{planned: planned{plan: raw}, labels: labels}, nil
}

func (s *LotsStrategy) Name() string { return "lots" }

func (s *LotsStrategy) Decide(ctx Context) model.Dispatch { return s.decide(ctx.Index) }

func (s *LotsStrategy) Labels() []model.Label { return s.labels }

func classify(prices []float64, labeler signal.Labeler, filter *signal.FilterParams) ([]model.Label, error) {
	if labeler == nil {
		labeler = signal.DefaultClassifier()
	}
	labels, err := labeler.Classify(prices)
	if err != nil {
		return nil, fmt.Errorf("classify prices: %w", err)
	}
	if filter == nil {
		return labels, nil
	}
	labels, err = signal.Filter(prices, labels, *filter)
	if err != nil {
		return nil, fmt.Errorf("filter labels: %w", err)
	}
	return labels, nil
}
