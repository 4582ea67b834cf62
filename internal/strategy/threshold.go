package strategy

import (
	"fmt"

	"battery-arbitrage/internal/model"
)

// ThresholdParams triggers on absolute prices:
// - charge when price < ChargeBelow
// - discharge when price > DischargeAbove
// - otherwise hold
type ThresholdParams struct {
	ChargeBelow    float64
	DischargeAbove float64
}

func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{ChargeBelow: 100, DischargeAbove: 110}
}

func (p ThresholdParams) Validate() error {
	if p.ChargeBelow > p.DischargeAbove {
		return fmt.Errorf("charge_below (%.2f) must not exceed discharge_above (%.2f)", p.ChargeBelow, p.DischargeAbove)
	}
	return nil
}

type ThresholdStrategy struct {
	Params ThresholdParams
}

func (s *ThresholdStrategy) Name() string { return "threshold" }

func (s *ThresholdStrategy) Decide(ctx Context) model.Dispatch {
	if ctx.Battery == nil {
		return model.Dispatch{}
	}
	price := ctx.Period.Price
	switch {
	case price < s.Params.ChargeBelow:
		return chargeMax(ctx.Battery)
	case price > s.Params.DischargeAbove:
		return dischargeMax(ctx.Battery)
	}
	return model.Dispatch{}
}
