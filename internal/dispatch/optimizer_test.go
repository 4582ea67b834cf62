package dispatch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
)

const eps = 1e-9

func mustLabels(t *testing.T, xs ...int) []model.Label {
	t.Helper()
	l, err := model.LabelsFromInts(xs)
	require.NoError(t, err)
	return l
}

func newOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	o, err := New(DefaultParams())
	require.NoError(t, err)
	return o
}

func TestOptimizeEndToEnd(t *testing.T) {
	prices := []float64{50, 200, 50, 200}
	s, err := newOptimizer(t).Optimize(prices, mustLabels(t, -1, 1, -1, 1))
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{-135, 135, -135, 135}, s.Raw, eps)
	assert.InDeltaSlice(t, []float64{-150, 121.5, -150, 121.5}, s.MarketDispatch, eps)
	assert.InDeltaSlice(t, []float64{135, 0, 135, 0}, s.ClosingCapacity, eps)

	total, err := s.TotalRevenue(prices, 0.991)
	require.NoError(t, err)
	want := 2 * (-150*50/0.991 + 121.5*200*0.991)
	assert.InDelta(t, want, total, 1e-6)
}

func TestOptimizeCheapestLotFirst(t *testing.T) {
	s, err := newOptimizer(t).Optimize([]float64{8, 5, 100}, mustLabels(t, -1, -1, 1))
	require.NoError(t, err)
	// the lot at 5 is drawn in full, the lot at 8 only for the remainder
	assert.InDeltaSlice(t, []float64{-15, -135, 150}, s.Raw, eps)
}

func TestOptimizeLeftoverCarriesToNextRun(t *testing.T) {
	prices := []float64{10, 20, 100, 30, 200}
	s, err := newOptimizer(t).Optimize(prices, mustLabels(t, -1, -1, 1, -1, 1))
	require.NoError(t, err)
	// first run: 135 from the 10 lot and 15 from the 20 lot.
	// second run: the remaining 120 of the 20 lot, then 30 from the 30 lot.
	assert.InDeltaSlice(t, []float64{-135, -135, 150, -30, 150}, s.Raw, eps)
	assert.InDeltaSlice(t, []float64{135, 270, 120, 150, 0}, s.ClosingCapacity, eps)
}

func TestOptimizeUnmatchedChargeIsZero(t *testing.T) {
	s, err := newOptimizer(t).Optimize([]float64{10, 20, 5}, mustLabels(t, -1, 1, -1))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-135, 135, 0}, s.Raw, eps)
}

func TestOptimizeDischargeWithoutChargeIsZero(t *testing.T) {
	s, err := newOptimizer(t).Optimize([]float64{100, 100}, mustLabels(t, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, s.Raw)
}

func TestOptimizeAllHold(t *testing.T) {
	s, err := newOptimizer(t).Optimize([]float64{1, 2, 3}, mustLabels(t, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, s.Raw)
	assert.Equal(t, []float64{0, 0, 0}, s.ClosingCapacity)
}

func TestOptimizeEmpty(t *testing.T) {
	s, err := newOptimizer(t).Optimize(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, s.Raw)
}

func TestOptimizeLengthMismatch(t *testing.T) {
	_, err := newOptimizer(t).Optimize([]float64{1, 2}, mustLabels(t, 1))
	assert.ErrorIs(t, err, model.ErrLengthMismatch)
}

func TestChargeRevisionMovesEnergyToCheaperPeriod(t *testing.T) {
	o := newOptimizer(t)
	p := &pass{params: o.params, dispatch: make([]float64, 6), log: o.log}
	for i, price := range []float64{10, 9, 8, 7, 6, 5} {
		p.charge(i, price)
	}
	// 580 MWh fits four full lots and a partial one; the last two periods
	// pull energy off the most expensive lots.
	assert.LessOrEqual(t, p.charges.len(), 5)
	assert.InDelta(t, 580, p.capacity, eps)
	assert.InDelta(t, -580, p.charges.standing(), eps)
	for _, l := range p.charges.lots {
		assert.NotEqual(t, 10.0, l.price, "most expensive lot should be retired")
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	p := DefaultParams()
	p.MaxCharge = 135
	_, err := New(p)
	assert.Error(t, err)

	p = DefaultParams()
	p.Efficiency = 0
	_, err = New(p)
	assert.Error(t, err)
}

func TestPostProcessRejectsOverdraw(t *testing.T) {
	_, err := PostProcess([]float64{100}, DefaultParams())
	assert.ErrorIs(t, err, ErrCapacityViolation)

	_, err = PostProcess([]float64{-135, -135, -135, -135, -135}, DefaultParams())
	assert.ErrorIs(t, err, ErrCapacityViolation)
}

func TestPostProcessFromOpeningEnergy(t *testing.T) {
	s, err := PostProcessFrom([]float64{100, -50}, DefaultParams(), 200)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 150}, s.ClosingCapacity, 1e-9)
	assert.InDeltaSlice(t, []float64{90, -50 / 0.9}, s.MarketDispatch, 1e-9)

	_, err = PostProcessFrom([]float64{-135}, DefaultParams(), 500)
	assert.ErrorIs(t, err, ErrCapacityViolation)

	_, err = PostProcessFrom(nil, DefaultParams(), 600)
	assert.ErrorIs(t, err, ErrCapacityViolation)
}

func TestOptimizeProperties(t *testing.T) {
	o := newOptimizer(t)
	params := o.Params()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(300)
		prices := make([]float64, n)
		raw := make([]int, n)
		for i := range prices {
			prices[i] = rng.Float64()*400 - 100
			raw[i] = rng.Intn(3) - 1
		}
		labels := mustLabels(t, raw...)
		if trial%2 == 0 {
			var err error
			labels, err = signal.Filter(prices, labels, signal.DefaultFilterParams())
			require.NoError(t, err)
		}

		s, err := o.Optimize(prices, labels)
		require.NoError(t, err, "trial %d", trial)

		var sum float64
		for i, r := range s.Raw {
			assert.GreaterOrEqual(t, r, params.MaxCharge-eps, "trial %d period %d", trial, i)
			assert.LessOrEqual(t, r, params.MaxDischarge+eps, "trial %d period %d", trial, i)
			assert.GreaterOrEqual(t, s.ClosingCapacity[i], -model.Tolerance)
			assert.LessOrEqual(t, s.ClosingCapacity[i], params.Capacity+model.Tolerance)
			if labels[i] == model.LabelHold {
				assert.Zero(t, r)
			}
			sum += r
		}
		// every discharged MWh is matched by an earlier charged MWh
		assert.InDelta(t, 0, sum, 1e-6, "trial %d", trial)
	}
}
