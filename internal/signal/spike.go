package signal

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat"

	"battery-arbitrage/internal/model"
)

const (
	// spikeJump is the relative rise over the previous period that makes a
	// period a spike.
	spikeJump = 0.135
	// spikeFloor is the quantile of the trailing window the period after a
	// spike must fall below.
	spikeFloor = 0.15
	// dipFloor and dipSpread bound the centred window for Dip.
	dipFloor  = 0.05
	dipSpread = 0.3
)

// Spike labels single-period price spikes. A period that rose at least 13.5%
// over the one before, and is followed by a price back below both that
// previous price and the trailing window's 15th percentile, is a discharge.
// The period right after such a spike is a charge when it sits at or below
// the pre-spike price.
//
// Periods without a full trailing window stay on hold.
type Spike struct {
	Window int `yaml:"window" json:"window"`
}

func (s Spike) Classify(prices []float64) ([]model.Label, error) {
	if s.Window < 1 {
		return nil, errors.New("spike window must be >= 1")
	}
	n := len(prices)
	labels := make([]model.Label, n)
	for i := range prices {
		switch {
		case s.peak(prices, i):
			labels[i] = model.LabelDischarge
		case s.trough(prices, i):
			labels[i] = model.LabelCharge
		}
	}
	return labels, nil
}

// peak reports whether i is a spike, judged against prices[i-Window:i].
func (s Spike) peak(prices []float64, i int) bool {
	if i < s.Window || i+1 >= len(prices) {
		return false
	}
	prev, next := prices[i-1], prices[i+1]
	floor := quantileLinear(sortedCopy(prices[i-s.Window:i]), spikeFloor)
	return next <= prev && next < floor && (prices[i]-prev)/prev >= spikeJump
}

// trough reports whether i follows a spike at i-1, judged against
// prices[i-Window-1:i-1].
func (s Spike) trough(prices []float64, i int) bool {
	if i < s.Window+1 {
		return false
	}
	prev, pre := prices[i-1], prices[i-2]
	floor := quantileLinear(sortedCopy(prices[i-s.Window-1:i-1]), spikeFloor)
	return prices[i] <= pre && prices[i] < floor && (prev-pre)/pre >= spikeJump
}

// Dip labels a period as a charge when it is below the 5th percentile of the
// Window periods centred on it and the window's sample standard deviation is
// more than 30% of its price. Periods without a full window stay on hold.
type Dip struct {
	Window int `yaml:"window" json:"window"`
}

func (d Dip) Classify(prices []float64) ([]model.Label, error) {
	if d.Window < 2 {
		return nil, errors.New("dip window must be >= 2")
	}
	n := len(prices)
	labels := make([]model.Label, n)
	back := d.Window - 1 - d.Window/2
	for i, p := range prices {
		lo, hi := i-back, i+d.Window/2+1
		if lo < 0 || hi > n {
			continue
		}
		window := prices[lo:hi]
		floor := quantileLinear(sortedCopy(window), dipFloor)
		if p < floor && stat.StdDev(window, nil)/p > dipSpread {
			labels[i] = model.LabelCharge
		}
	}
	return labels, nil
}

// SpikeVote votes a short and a medium classifier together with Spike and
// Dip over spikeWindow periods.
func SpikeVote(short, medium Classifier, spikeWindow int) Vote {
	return Vote{Timeframes: []Labeler{
		medium,
		short,
		Spike{Window: spikeWindow},
		Dip{Window: spikeWindow},
	}}
}

// DefaultSpikeVote pairs a narrow 8-period band with a wider, inclusive
// 12-period band and looks for spikes over 5 periods.
func DefaultSpikeVote() Vote {
	short := Classifier{Window: 8, Lower: 0.1, Upper: 0.9, Method: MethodLinear}
	medium := Classifier{Window: 12, Lower: 0.35, Upper: 0.75, Method: MethodLinear, Inclusive: true}
	return SpikeVote(short, medium, 5)
}

// WithSpikes adds Spike and Dip over window periods to base's vote.
func WithSpikes(base Labeler, window int) Vote {
	return Vote{Timeframes: []Labeler{base, Spike{Window: window}, Dip{Window: window}}}
}

func sortedCopy(xs []float64) []float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s
}
