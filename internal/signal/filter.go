package signal

import (
	"errors"
	"slices"

	"battery-arbitrage/internal/model"
)

// FilterParams bounds how many same-direction signals survive per run.
// The asymmetric defaults (5 charges, 4 discharges) are deliberate.
type FilterParams struct {
	ChargeCap    int `yaml:"charge_cap" json:"charge_cap" default:"5" validate:"gte=1"`
	DischargeCap int `yaml:"discharge_cap" json:"discharge_cap" default:"4" validate:"gte=1"`
}

func DefaultFilterParams() FilterParams {
	return FilterParams{ChargeCap: 5, DischargeCap: 4}
}

func (p FilterParams) Validate() error {
	if p.ChargeCap < 1 || p.DischargeCap < 1 {
		return errors.New("filter caps must be >= 1")
	}
	return nil
}

type candidate struct {
	period int
	price  float64
}

// Filter post-processes raw labels:
//  1. discharges before the first charge are dropped
//  2. charges after the last discharge are dropped
//  3. within each run of charges only the ChargeCap cheapest survive, and
//     within each run of discharges only the DischargeCap costliest survive
//
// A series with no charge (or no discharge) collapses to all-hold; that is a
// valid, if uninteresting, result. The input slice is not modified.
func Filter(prices []float64, labels []model.Label, p FilterParams) ([]model.Label, error) {
	if err := model.CheckAligned(prices, labels); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := slices.Clone(labels)

	first := slices.Index(out, model.LabelCharge)
	for i := range out {
		if first >= 0 && i >= first {
			break
		}
		if out[i] == model.LabelDischarge {
			out[i] = model.LabelHold
		}
	}

	last := lastIndex(out, model.LabelDischarge)
	for i := len(out) - 1; i > last; i-- {
		if out[i] == model.LabelCharge {
			out[i] = model.LabelHold
		}
	}

	var charges, discharges []candidate
	for i, l := range out {
		switch l {
		case model.LabelCharge:
			discharges = discharges[:0]
			charges = append(charges, candidate{period: i, price: prices[i]})
			if len(charges) > p.ChargeCap {
				k := argBy(charges, func(a, b float64) bool { return a > b })
				out[charges[k].period] = model.LabelHold
				charges = slices.Delete(charges, k, k+1)
			}
		case model.LabelDischarge:
			charges = charges[:0]
			discharges = append(discharges, candidate{period: i, price: prices[i]})
			if len(discharges) > p.DischargeCap {
				k := argBy(discharges, func(a, b float64) bool { return a < b })
				out[discharges[k].period] = model.LabelHold
				discharges = slices.Delete(discharges, k, k+1)
			}
		}
	}
	return out, nil
}

func lastIndex(labels []model.Label, want model.Label) int {
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i] == want {
			return i
		}
	}
	return -1
}

// argBy returns the first index whose price wins under better.
func argBy(cands []candidate, better func(a, b float64) bool) int {
	best := 0
	for i := 1; i < len(cands); i++ {
		if better(cands[i].price, cands[best].price) {
			best = i
		}
	}
	return best
}
