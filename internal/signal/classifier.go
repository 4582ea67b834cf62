package signal

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"battery-arbitrage/internal/model"
)

// Labeler turns a price series into a label series of the same length.
type Labeler interface {
	Classify(prices []float64) ([]model.Label, error)
}

// Classifier labels each period against a band computed from the prices
// that follow it. A period priced below the band is a charge opportunity,
// above the band a discharge opportunity.
type Classifier struct {
	Window int     `yaml:"window" json:"window" default:"10" validate:"gte=2"`
	Lower  float64 `yaml:"lower" json:"lower" default:"0.25" validate:"gt=0,lt=1"`
	Upper  float64 `yaml:"upper" json:"upper" default:"0.75" validate:"gt=0,lt=1"`
	Method Method  `yaml:"method" json:"method" default:"linear"`
	// Inclusive classifies prices equal to a band edge.
	Inclusive bool `yaml:"inclusive" json:"inclusive"`
	// FillTail labels the last Window periods against the final window
	// instead of leaving them on hold.
	FillTail bool `yaml:"fill_tail" json:"fill_tail"`
	// StdDevs is k for MethodStdDev.
	StdDevs float64 `yaml:"std_devs" json:"std_devs" default:"1"`
}

func DefaultClassifier() Classifier {
	return Classifier{
		Window:  10,
		Lower:   0.25,
		Upper:   0.75,
		Method:  MethodLinear,
		StdDevs: 1,
	}
}

func (c Classifier) Validate() error {
	if c.Window < 2 {
		return errors.New("window must be >= 2")
	}
	switch c.Method {
	case MethodExcel, MethodLinear, MethodEmpirical:
		if c.Lower <= 0 || c.Upper >= 1 || c.Lower > c.Upper {
			return fmt.Errorf("percentiles must satisfy 0 < lower <= upper < 1 (got %.3f, %.3f)", c.Lower, c.Upper)
		}
	case MethodStdDev:
		if c.StdDevs < 0 {
			return errors.New("std_devs must be >= 0")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
	return nil
}

// Band returns the lower and upper thresholds for one window of prices.
func (c Classifier) Band(window []float64) (lower, upper float64, err error) {
	if len(window) == 0 {
		return 0, 0, errEmptyWindow
	}
	if c.Method == MethodStdDev {
		mean, std := stat.PopMeanStdDev(window, nil)
		return mean - c.StdDevs*std, mean + c.StdDevs*std, nil
	}
	sorted := append([]float64(nil), window...)
	sort.Float64s(sorted)
	if lower, err = Quantile(c.Method, sorted, c.Lower); err != nil {
		return 0, 0, err
	}
	if upper, err = Quantile(c.Method, sorted, c.Upper); err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

func (c Classifier) Classify(prices []float64) ([]model.Label, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	n := len(prices)
	labels := make([]model.Label, n)

	for i := 0; i+c.Window < n; i++ {
		lo, hi, err := c.Band(prices[i+1 : i+1+c.Window])
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i, err)
		}
		labels[i] = c.label(prices[i], lo, hi)
	}

	if c.FillTail && n > 0 {
		start := max(0, n-c.Window)
		lo, hi, err := c.Band(prices[start:])
		if err != nil {
			return nil, fmt.Errorf("tail: %w", err)
		}
		for i := start; i < n; i++ {
			labels[i] = c.label(prices[i], lo, hi)
		}
	}
	return labels, nil
}

func (c Classifier) label(price, lo, hi float64) model.Label {
	if c.Inclusive {
		switch {
		case price <= lo:
			return model.LabelCharge
		case price >= hi:
			return model.LabelDischarge
		}
		return model.LabelHold
	}
	switch {
	case price < lo:
		return model.LabelCharge
	case price > hi:
		return model.LabelDischarge
	}
	return model.LabelHold
}
