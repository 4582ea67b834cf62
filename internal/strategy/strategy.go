package strategy

import (
	"errors"

	"battery-arbitrage/internal/model"
)

var (
	// ErrUnknownStrategy is returned by Build for names it does not know.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInitialEnergy is returned for strategies that can only plan from an
	// empty battery.
	ErrInitialEnergy = errors.New("strategy requires an empty battery")
)

type Context struct {
	Index   int
	Period  model.PricePeriod
	Battery *model.Battery
}

type Strategy interface {
	Name() string
	Decide(ctx Context) model.Dispatch
}

// Labeled is implemented by strategies driven by a label series, so the
// ledger can report the signal behind each decision.
type Labeled interface {
	Labels() []model.Label
}

// planned indexes a precomputed raw dispatch plan.
type planned struct {
	plan []float64
}

func (p planned) decide(idx int) model.Dispatch {
	if idx < 0 || idx >= len(p.plan) {
		return model.Dispatch{EnergyMWh: 0}
	}
	return model.Dispatch{EnergyMWh: p.plan[idx]}
}

// Plan returns the precomputed raw dispatch.
func (p planned) Plan() []float64 { return p.plan }
