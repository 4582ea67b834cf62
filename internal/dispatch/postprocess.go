package dispatch

import (
	"fmt"

	"battery-arbitrage/internal/model"
)

// Schedule is a raw dispatch with its derived market dispatch and closing
// state of charge, all per period.
type Schedule struct {
	Raw             []float64 `json:"raw"`
	MarketDispatch  []float64 `json:"market_dispatch"`
	ClosingCapacity []float64 `json:"closing_capacity"`
}

// PostProcess derives market dispatch and the closing capacity trace from a
// raw dispatch, starting empty. The trace is checked against [0, Capacity].
func PostProcess(raw []float64, p Params) (*Schedule, error) {
	return PostProcessFrom(raw, p, 0)
}

// PostProcessFrom is PostProcess starting from opening MWh of stored energy.
func PostProcessFrom(raw []float64, p Params, opening float64) (*Schedule, error) {
	if opening < 0 || opening > p.Capacity {
		return nil, fmt.Errorf("%w: opening capacity %.6f", ErrCapacityViolation, opening)
	}
	s := &Schedule{
		Raw:             raw,
		MarketDispatch:  make([]float64, len(raw)),
		ClosingCapacity: make([]float64, len(raw)),
	}
	level := opening
	for i, r := range raw {
		m := model.MarketDispatch(r, p.Efficiency)
		level += model.StorageDelta(m, p.Efficiency)
		if level < -model.Tolerance || level > p.Capacity+model.Tolerance {
			return nil, fmt.Errorf("%w: closing capacity %.6f at period %d", ErrCapacityViolation, level, i)
		}
		s.MarketDispatch[i] = m
		s.ClosingCapacity[i] = level
	}
	return s, nil
}

// Revenue returns per-period MLF-adjusted revenue at prices.
func (s *Schedule) Revenue(prices []float64, mlf float64) ([]float64, error) {
	if len(prices) != len(s.MarketDispatch) {
		return nil, fmt.Errorf("%w: %d prices for %d periods", model.ErrLengthMismatch, len(prices), len(s.MarketDispatch))
	}
	out := make([]float64, len(prices))
	for i, m := range s.MarketDispatch {
		out[i] = model.Revenue(m, prices[i], mlf)
	}
	return out, nil
}

// TotalRevenue sums Revenue.
func (s *Schedule) TotalRevenue(prices []float64, mlf float64) (float64, error) {
	rev, err := s.Revenue(prices, mlf)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range rev {
		total += r
	}
	return total, nil
}
