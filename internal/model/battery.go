package model

import (
	"errors"
	"fmt"
	"math"
)

// Tolerance absorbs float drift when checking energy bounds.
const Tolerance = 1e-6

var (
	// ErrCapacityViolation signals stored energy leaving [0, CapacityMWh].
	ErrCapacityViolation = errors.New("capacity violation")
	// ErrPowerLimit signals a per-period dispatch beyond the charge/discharge limits.
	ErrPowerLimit = errors.New("dispatch exceeds power limit")
)

// BatteryParams defines the physical and market parameters of the battery.
// Units:
// - energies are battery-side MWh per period (one half-hour)
// - Efficiency: 0..1, applied once on each leg
// - MarginalLossFactor: multiplicative revenue adjustment
type BatteryParams struct {
	CapacityMWh        float64
	MaxChargeMWh       float64 // magnitude
	MaxDischargeMWh    float64
	Efficiency         float64
	MarginalLossFactor float64
}

// DefaultBatteryParams is the 580 MWh reference battery.
func DefaultBatteryParams() BatteryParams {
	return BatteryParams{
		CapacityMWh:        580,
		MaxChargeMWh:       135,
		MaxDischargeMWh:    150,
		Efficiency:         0.9,
		MarginalLossFactor: 0.991,
	}
}

func (p BatteryParams) Validate() error {
	if p.CapacityMWh <= 0 {
		return errors.New("CapacityMWh must be > 0")
	}
	if p.MaxChargeMWh <= 0 {
		return errors.New("MaxChargeMWh must be > 0")
	}
	if p.MaxDischargeMWh <= 0 {
		return errors.New("MaxDischargeMWh must be > 0")
	}
	if p.Efficiency <= 0 || p.Efficiency > 1 {
		return errors.New("Efficiency must be in (0, 1]")
	}
	if p.MarginalLossFactor <= 0 {
		return errors.New("MarginalLossFactor must be > 0")
	}
	return nil
}

// BatteryState captures mutable state.
type BatteryState struct {
	// EnergyMWh is the stored energy, battery side.
	EnergyMWh float64
}

// Battery is a convenience wrapper bundling params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

func NewBattery(params BatteryParams, initialEnergyMWh float64) (*Battery, error) {
	b := &Battery{
		Params: params,
		State:  BatteryState{EnergyMWh: initialEnergyMWh},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Battery) Validate() error {
	if err := b.Params.Validate(); err != nil {
		return err
	}
	if b.State.EnergyMWh < 0 || b.State.EnergyMWh > b.Params.CapacityMWh {
		return errors.New("initial energy must be within [0, CapacityMWh]")
	}
	return nil
}

// Dispatch is a requested battery-side energy flow for one period.
// Convention: positive = discharge, negative = charge.
type Dispatch struct {
	EnergyMWh float64
}

// IntervalResult captures what happened in one period.
type IntervalResult struct {
	RawMWh            float64 // battery-side flow, negative = charge
	MarketDispatchMWh float64 // grid-side flow after efficiency
	OpeningMWh        float64
	ClosingMWh        float64
	Revenue           float64 // $ for this period, MLF-adjusted
}

// ChargeHeadroom is the largest charge (magnitude) the battery can take this period.
func (b *Battery) ChargeHeadroom() float64 {
	return math.Max(0, math.Min(b.Params.MaxChargeMWh, b.Params.CapacityMWh-b.State.EnergyMWh))
}

// DischargeAvailable is the largest discharge the battery can deliver this period.
func (b *Battery) DischargeAvailable() float64 {
	return math.Max(0, math.Min(b.Params.MaxDischargeMWh, b.State.EnergyMWh))
}

// ApplyDispatch applies a dispatch for a single period. Requests outside the
// power limits or the capacity window are rejected rather than clipped, so a
// strategy's accounting error surfaces instead of being absorbed.
func (b *Battery) ApplyDispatch(price float64, d Dispatch) (IntervalResult, error) {
	raw := d.EnergyMWh
	if raw < -b.Params.MaxChargeMWh-Tolerance || raw > b.Params.MaxDischargeMWh+Tolerance {
		return IntervalResult{}, fmt.Errorf("%w: %.6f MWh", ErrPowerLimit, raw)
	}

	opening := b.State.EnergyMWh
	closing := opening - raw
	if closing < -Tolerance || closing > b.Params.CapacityMWh+Tolerance {
		return IntervalResult{}, fmt.Errorf("%w: closing %.6f MWh outside [0, %.2f]",
			ErrCapacityViolation, closing, b.Params.CapacityMWh)
	}
	// Snap drift inside the tolerance band.
	closing = math.Min(math.Max(closing, 0), b.Params.CapacityMWh)
	b.State.EnergyMWh = closing

	market := MarketDispatch(raw, b.Params.Efficiency)
	return IntervalResult{
		RawMWh:            raw,
		MarketDispatchMWh: market,
		OpeningMWh:        opening,
		ClosingMWh:        closing,
		Revenue:           Revenue(market, price, b.Params.MarginalLossFactor),
	}, nil
}

// MarketDispatch converts a battery-side flow to the grid-facing meter:
// charging draws more than is stored, discharging delivers less than is withdrawn.
func MarketDispatch(raw, efficiency float64) float64 {
	switch {
	case raw < 0:
		return raw / efficiency
	case raw > 0:
		return raw * efficiency
	default:
		return 0
	}
}

// StorageDelta is the battery-side energy change implied by a market dispatch.
func StorageDelta(market, efficiency float64) float64 {
	switch {
	case market < 0:
		return -market * efficiency
	case market > 0:
		return -market / efficiency
	default:
		return 0
	}
}

// Revenue is the MLF-adjusted cash flow of a market dispatch at price.
func Revenue(market, price, mlf float64) float64 {
	if market < 0 {
		return market * price / mlf
	}
	return market * price * mlf
}
