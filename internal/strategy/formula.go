package strategy

import (
	"fmt"

	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
)

// FormulaStrategy follows a label series greedily: every charge label
// charges as much as the battery takes, every discharge label discharges as
// much as it holds. No lots, no lookahead.
type FormulaStrategy struct {
	labels []model.Label
}

// NewFormulaStrategy classifies prices with labeler and filters the labels
// when filter is non-nil.
func NewFormulaStrategy(prices []float64, labeler signal.Labeler, filter *signal.FilterParams) (*FormulaStrategy, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices")
	}
	labels, err := classify(prices, labeler, filter)
	if err != nil {
		return nil, err
	}
	return &FormulaStrategy{labels: labels}, nil
}

// NewFormulaFromLabels uses labels as given.
func NewFormulaFromLabels(labels []model.Label) *FormulaStrategy {
	return &FormulaStrategy{labels: labels}
}

func (s *FormulaStrategy) Name() string { return "formula" }

func (s *FormulaStrategy) Labels() []model.Label { return s.labels }

func (s *FormulaStrategy) Decide(ctx Context) model.Dispatch {
	if ctx.Index < 0 || ctx.Index >= len(s.labels) || ctx.Battery == nil {
		return model.Dispatch{}
	}
	switch s.labels[ctx.Index] {
	case model.LabelCharge:
		return chargeMax(ctx.Battery)
	case model.LabelDischarge:
		return dischargeMax(ctx.Battery)
	}
	return model.Dispatch{}
}

func chargeMax(b *model.Battery) model.Dispatch {
	return model.Dispatch{EnergyMWh: -b.ChargeHeadroom()}
}

func dischargeMax(b *model.Battery) model.Dispatch {
	return model.Dispatch{EnergyMWh: b.DischargeAvailable()}
}
