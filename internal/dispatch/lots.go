package dispatch

import (
	"cmp"
	"slices"
)

// lotEpsilon treats float residue on a lot as empty.
const lotEpsilon = 1e-9

// chargeLot is energy committed in a charge period that has not yet been
// fully matched by a discharge. reserved and left are <= 0.
type chargeLot struct {
	period   int
	price    float64
	reserved float64
	left     float64
}

func (l *chargeLot) used() float64 { return l.reserved - l.left }

func (l *chargeLot) consumed() bool { return l.left > -lotEpsilon }

// dischargeLot is a provisional full-power discharge awaiting settlement.
type dischargeLot struct {
	period    int
	price     float64
	remaining float64
}

// chargeBook holds the active charge lots of one optimizer pass.
type chargeBook struct {
	lots []*chargeLot
}

func (b *chargeBook) open(period int, price, amount float64) {
	b.lots = append(b.lots, &chargeLot{period: period, price: price, reserved: amount, left: amount})
}

// Sorts are stable so equal prices keep arrival order.
func (b *chargeBook) byPriceDesc() {
	slices.SortStableFunc(b.lots, func(x, y *chargeLot) int { return cmp.Compare(y.price, x.price) })
}

func (b *chargeBook) byPriceAsc() {
	slices.SortStableFunc(b.lots, func(x, y *chargeLot) int { return cmp.Compare(x.price, y.price) })
}

// retireConsumed removes every lot with nothing left to match.
func (b *chargeBook) retireConsumed() {
	b.lots = slices.DeleteFunc(b.lots, (*chargeLot).consumed)
}

func (b *chargeBook) len() int { return len(b.lots) }

// standing is the total unmatched energy held by the book (<= 0).
func (b *chargeBook) standing() float64 {
	var sum float64
	for _, l := range b.lots {
		sum += l.left
	}
	return sum
}

type dischargeBook struct {
	lots []*dischargeLot
}

func (b *dischargeBook) open(period int, price, alloc float64) {
	b.lots = append(b.lots, &dischargeLot{period: period, price: price, remaining: alloc})
}

func (b *dischargeBook) byPriceDesc() {
	slices.SortStableFunc(b.lots, func(x, y *dischargeLot) int { return cmp.Compare(y.price, x.price) })
}

func (b *dischargeBook) clear() { b.lots = b.lots[:0] }
