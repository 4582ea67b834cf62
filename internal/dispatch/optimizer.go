package dispatch

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"battery-arbitrage/internal/model"
)

// fullChargeEpsilon decides whether a charge period got the full power limit.
const fullChargeEpsilon = 1e-9

// Optimizer turns a filtered label series into a feasible dispatch schedule
// in a single pass with one period of lookahead.
//
// Charge periods open lots. When the battery is too full to take a full
// charge, energy is moved off more expensive standing lots onto the current,
// cheaper period. Each run of discharge periods is settled when the run ends:
// the costliest discharges draw on the cheapest lots first, and any lot energy
// left over stays open for the next run. Charge periods whose energy is never
// matched end with zero dispatch.
type Optimizer struct {
	params Params
	log    zerolog.Logger
}

type Option func(*Optimizer)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Optimizer) { o.log = l }
}

func New(p Params, opts ...Option) (*Optimizer, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	o := &Optimizer{params: p, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Optimizer) Params() Params { return o.params }

// Optimize plans raw dispatch for labels and post-processes it.
func (o *Optimizer) Optimize(prices []float64, labels []model.Label) (*Schedule, error) {
	raw, err := o.Plan(prices, labels)
	if err != nil {
		return nil, err
	}
	return PostProcess(raw, o.params)
}

// Plan returns the raw battery-side dispatch, negative for charge.
func (o *Optimizer) Plan(prices []float64, labels []model.Label) ([]float64, error) {
	if err := model.CheckAligned(prices, labels); err != nil {
		return nil, err
	}

	active := make([]int, 0, len(labels))
	for i, l := range labels {
		if l != model.LabelHold {
			active = append(active, i)
		}
	}

	p := &pass{
		params:   o.params,
		dispatch: make([]float64, len(labels)),
		log:      o.log,
	}
	for k, i := range active {
		switch labels[i] {
		case model.LabelCharge:
			p.charge(i, prices[i])
		case model.LabelDischarge:
			p.discharges.open(i, prices[i], o.params.MaxDischarge)
			p.dispatch[i] = o.params.MaxDischarge
			if next, ok := peek(labels, active, k); !ok || next == model.LabelCharge {
				if err := p.settle(); err != nil {
					return nil, err
				}
			}
		}
	}

	o.log.Info().
		Int("periods", len(labels)).
		Int("active", len(active)).
		Int("settlements", p.settlements).
		Int("open_lots", p.charges.len()).
		Float64("unmatched_mwh", -p.charges.standing()).
		Msg("dispatch planned")
	return p.dispatch, nil
}

// peek returns the label of the active period after position k. ok is false
// at the end of the sequence.
func peek(labels []model.Label, active []int, k int) (model.Label, bool) {
	if k+1 >= len(active) {
		return model.LabelHold, false
	}
	return labels[active[k+1]], true
}

// pass is the mutable state of one Plan call.
type pass struct {
	params      Params
	capacity    float64
	charges     chargeBook
	discharges  dischargeBook
	dispatch    []float64
	settlements int
	log         zerolog.Logger
}

func (p *pass) charge(period int, price float64) {
	opening := p.capacity
	next := math.Min(math.Max(opening-p.params.MaxCharge, 0), p.params.Capacity)
	committed := opening - next

	if math.Abs(committed-p.params.MaxCharge) <= fullChargeEpsilon {
		p.charges.open(period, price, p.params.MaxCharge)
	} else {
		p.charges.byPriceDesc()
		for _, lot := range p.charges.lots {
			if lot.price <= price {
				break
			}
			transfer := math.Max(lot.left, p.params.MaxCharge-committed)
			committed += transfer
			lot.left -= transfer
			lot.reserved -= transfer
		}
		p.charges.retireConsumed()
		if committed < -lotEpsilon {
			p.charges.open(period, price, committed)
		}
	}
	p.capacity = next
}

func (p *pass) settle() error {
	p.discharges.byPriceDesc()
	p.charges.byPriceAsc()

	for _, d := range p.discharges.lots {
		for _, c := range p.charges.lots {
			d.remaining += c.left
			p.capacity += c.left
			if d.remaining >= 0 {
				c.left = 0
			} else {
				c.left = d.remaining
				d.remaining = 0
				p.capacity -= c.left
			}
		}
	}

	for _, c := range p.charges.lots {
		p.dispatch[c.period] = c.used()
	}
	p.charges.retireConsumed()

	for _, d := range p.discharges.lots {
		if d.remaining == p.params.MaxDischarge {
			p.dispatch[d.period] = 0
		} else {
			p.dispatch[d.period] = math.Min(p.params.MaxDischarge, p.params.MaxDischarge-d.remaining)
		}
	}
	p.settlements++
	p.log.Debug().
		Int("discharges", len(p.discharges.lots)).
		Int("open_lots", p.charges.len()).
		Float64("capacity", p.capacity).
		Msg("settled discharge run")
	p.discharges.clear()

	if p.capacity < -model.Tolerance || p.capacity > p.params.Capacity+model.Tolerance {
		return fmt.Errorf("%w: running capacity %.6f after settlement %d",
			ErrCapacityViolation, p.capacity, p.settlements)
	}
	return nil
}
