package backtest

import (
	"time"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
)

// LedgerRow is one row of per-period output.
// This is the primary artifact for "what happened" in a backtest.
type LedgerRow struct {
	Index int

	Start time.Time
	End   time.Time

	Region string
	Price  float64

	Label  model.Label
	Action model.Action

	RawMWh            float64
	MarketDispatchMWh float64

	OpeningMWh float64
	ClosingMWh float64

	Revenue    float64
	CumRevenue float64
}

type Result struct {
	ID           string
	Strategy     string
	Region       string
	Ledger       []LedgerRow
	Schedule     *dispatch.Schedule
	TotalRevenue float64
	FinalEnergy  float64
}

// Summary counts periods by action and totals throughput.
type Summary struct {
	ChargePeriods    int
	DischargePeriods int
	IdlePeriods      int
	ChargedMWh       float64 // battery side
	DischargedMWh    float64 // battery side
}

func (r *Result) Summary() Summary {
	var s Summary
	for _, row := range r.Ledger {
		switch row.Action {
		case model.ActionCharging:
			s.ChargePeriods++
			s.ChargedMWh -= row.RawMWh
		case model.ActionDischarging:
			s.DischargePeriods++
			s.DischargedMWh += row.RawMWh
		default:
			s.IdlePeriods++
		}
	}
	return s
}
