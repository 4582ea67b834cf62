package strategy

import (
	"fmt"
	"sort"
	"strings"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/signal"
)

// Spec names a strategy and its free-form parameters, as they arrive from
// YAML config or a JSON request.
type Spec struct {
	Name   string         `yaml:"name" json:"name" validate:"required"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

// Inputs is everything a strategy may need besides its own params.
type Inputs struct {
	Prices     []float64
	Battery    dispatch.Params
	Classifier signal.Classifier
	// Filter is applied to classifier labels unless params set filter: false.
	Filter signal.FilterParams
	// Windows, when non-empty, replaces the classifier with a vote over
	// these window lengths.
	Windows []int
	// InitialEnergy is the stored energy at the first period, MWh.
	InitialEnergy float64
	Opts          []dispatch.Option
}

// Info describes a strategy for listings.
type Info struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params"`
}

var registry = map[string]Info{
	"lots": {
		Name:        "lots",
		Description: "Classifier signals, filtered, then the lot-tracking optimizer with one-period lookahead",
		Params:      map[string]any{"filter": true, "spike_window": 0},
	},
	"formula": {
		Name:        "formula",
		Description: "Charge or discharge at full power whenever the (filtered) signal says so",
		Params:      map[string]any{"filter": true, "spike_window": 0},
	},
	"threshold": {
		Name:        "threshold",
		Description: "Charge below one price, discharge above another",
		Params:      map[string]any{"charge_below": 100.0, "discharge_above": 110.0},
	},
	"exact": {
		Name:        "exact",
		Description: "Perfect-foresight LP upper bound, solved per horizon chunk",
		Params:      map[string]any{"chunk_size": 48},
	},
}

// Available lists every registered strategy, sorted by name.
func Available() []Info {
	out := make([]Info, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Build(spec Spec, in Inputs) (Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(spec.Name))
	if err := CheckInitialEnergy(name, in.InitialEnergy); err != nil {
		return nil, err
	}
	switch name {
	case "lots":
		return NewLotsStrategy(in.Prices, in.Battery, LotsParams{
			Labeler: in.labeler(spec.Params),
			Filter:  in.filter(spec.Params),
			Opts:    in.Opts,
		})
	case "formula":
		return NewFormulaStrategy(in.Prices, in.labeler(spec.Params), in.filter(spec.Params))
	case "threshold":
		p := ThresholdParams{
			ChargeBelow:    mustNum(spec.Params, "charge_below", 100),
			DischargeAbove: mustNum(spec.Params, "discharge_above", 110),
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return &ThresholdStrategy{Params: p}, nil
	case "exact":
		return NewExactStrategy(in.Prices, in.Battery, ExactParams{
			ChunkSize:     int(mustNum(spec.Params, "chunk_size", 48)),
			InitialEnergy: in.InitialEnergy,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, spec.Name)
	}
}

// CheckInitialEnergy rejects a non-empty opening battery for strategies
// whose plan assumes the battery starts empty. The lot optimizer has no lot
// for energy it did not buy itself.
func CheckInitialEnergy(name string, mwh float64) error {
	if mwh <= 0 {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lots":
		return fmt.Errorf("%w: %s with initial energy %.2f MWh", ErrInitialEnergy, name, mwh)
	}
	return nil
}

// labeler picks the classifier, or a vote over Windows, and adds spike
// detection when params set spike_window.
func (in Inputs) labeler(params map[string]any) signal.Labeler {
	c := in.Classifier
	if c == (signal.Classifier{}) {
		c = signal.DefaultClassifier()
	}
	var base signal.Labeler = c
	if len(in.Windows) > 0 {
		base = signal.Windows(c, in.Windows...)
	}
	if w := int(mustNum(params, "spike_window", 0)); w >= 2 {
		return signal.WithSpikes(base, w)
	}
	return base
}

func (in Inputs) filter(params map[string]any) *signal.FilterParams {
	if !mustBool(params, "filter", true) {
		return nil
	}
	f := in.Filter
	if f == (signal.FilterParams{}) {
		f = signal.DefaultFilterParams()
	}
	return &f
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func mustBool(m map[string]any, key string, def bool) bool {
	if v, ok := m[key]; ok && v != nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
