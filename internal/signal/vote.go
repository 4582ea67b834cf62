package signal

import (
	"errors"
	"fmt"

	"battery-arbitrage/internal/model"
)

// Vote combines several labelers, typically classifiers over different
// window lengths, by the sign of the sum of their labels.
type Vote struct {
	Timeframes []Labeler
}

func (v Vote) Classify(prices []float64) ([]model.Label, error) {
	if len(v.Timeframes) == 0 {
		return nil, errors.New("vote needs at least one timeframe")
	}
	sum := make([]int, len(prices))
	for k, tf := range v.Timeframes {
		labels, err := tf.Classify(prices)
		if err != nil {
			return nil, fmt.Errorf("timeframe %d: %w", k, err)
		}
		if err := model.CheckAligned(prices, labels); err != nil {
			return nil, fmt.Errorf("timeframe %d: %w", k, err)
		}
		for i, l := range labels {
			sum[i] += int(l)
		}
	}
	out := make([]model.Label, len(prices))
	for i, s := range sum {
		switch {
		case s < 0:
			out[i] = model.LabelCharge
		case s > 0:
			out[i] = model.LabelDischarge
		}
	}
	return out, nil
}

// Windows builds a vote from copies of base, one per window length.
func Windows(base Classifier, windows ...int) Vote {
	v := Vote{Timeframes: make([]Labeler, 0, len(windows))}
	for _, w := range windows {
		c := base
		c.Window = w
		v.Timeframes = append(v.Timeframes, c)
	}
	return v
}
