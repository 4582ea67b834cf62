package dispatch

import (
	"errors"

	"battery-arbitrage/internal/model"
)

// Params is the immutable battery configuration an Optimizer is built with.
// MaxCharge is negative (energy into the battery), MaxDischarge positive.
type Params struct {
	Capacity           float64
	MaxCharge          float64
	MaxDischarge       float64
	Efficiency         float64
	MarginalLossFactor float64
}

func DefaultParams() Params {
	return ParamsFromBattery(model.DefaultBatteryParams())
}

// ParamsFromBattery converts model parameters (charge limit as a magnitude)
// to the signed convention used here.
func ParamsFromBattery(b model.BatteryParams) Params {
	return Params{
		Capacity:           b.CapacityMWh,
		MaxCharge:          -b.MaxChargeMWh,
		MaxDischarge:       b.MaxDischargeMWh,
		Efficiency:         b.Efficiency,
		MarginalLossFactor: b.MarginalLossFactor,
	}
}

func (p Params) Battery() model.BatteryParams {
	return model.BatteryParams{
		CapacityMWh:        p.Capacity,
		MaxChargeMWh:       -p.MaxCharge,
		MaxDischargeMWh:    p.MaxDischarge,
		Efficiency:         p.Efficiency,
		MarginalLossFactor: p.MarginalLossFactor,
	}
}

func (p Params) Validate() error {
	if p.MaxCharge >= 0 {
		return errors.New("MaxCharge must be negative")
	}
	return p.Battery().Validate()
}
