package strategy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
)

// ExactStrategy is the perfect-foresight upper bound. It computes a dispatch
// plan up-front by solving a linear program per horizon chunk, carrying the
// closing state of each chunk into the next.
//
// Notes:
//   - Within a chunk the plan is revenue-optimal; across chunks it is not,
//     since a chunk cannot see prices beyond its end.
//   - With negative prices the LP may charge and discharge in the same
//     period to burn energy. The plan nets the two, so realised revenue can
//     sit below the LP objective in that case.
type ExactStrategy struct {
	planned
	objective float64
}

type ExactParams struct {
	// ChunkSize is the number of periods solved jointly (default 48, one day).
	ChunkSize int
	// Tolerance is passed to the simplex solver.
	Tolerance float64
	// InitialEnergy is the stored energy the first chunk opens with, MWh.
	InitialEnergy float64
}

// snapEpsilon zeroes solver noise in the plan.
const snapEpsilon = 1e-9

func NewExactStrategy(prices []float64, params dispatch.Params, cfg ExactParams) (*ExactStrategy, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 48
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-9
	}
	if cfg.InitialEnergy < 0 || cfg.InitialEnergy > params.Capacity {
		return nil, fmt.Errorf("initial energy %.2f MWh outside [0, %.2f]", cfg.InitialEnergy, params.Capacity)
	}

	plan := make([]float64, 0, len(prices))
	soc, objective := cfg.InitialEnergy, 0.0
	for start := 0; start < len(prices); start += cfg.ChunkSize {
		end := min(start+cfg.ChunkSize, len(prices))
		raw, closing, obj, err := solveChunk(prices[start:end], params, soc, cfg.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("error optimizing chunk %d (periods %d-%d): %w", start/cfg.ChunkSize, start, end-1, err)
		}
		plan = append(plan, raw...)
		soc = closing
		objective += obj
	}
	return &ExactStrategy{planned: planned{plan: plan}, objective: objective}, nil
}

func (s *ExactStrategy) Name() string { return "exact" }

func (s *ExactStrategy) Decide(ctx Context) model.Dispatch { return s.decide(ctx.Index) }

// Objective is the LP optimum summed over chunks.
func (s *ExactStrategy) Objective() float64 { return s.objective }

// solveChunk builds the LP directly in standard form
//
//	min cᵀx  s.t.  Ax = b, x >= 0
//
// with x = [charge | discharge | soc | charge slack | discharge slack | soc slack].
// Rows 0..n-1 are the energy balance, the remaining 3n rows the upper bounds.
func solveChunk(prices []float64, p dispatch.Params, initial float64, tol float64) (raw []float64, closing, objective float64, err error) {
	n := len(prices)
	const blocks = 6
	cIdx := func(t int) int { return t }
	dIdx := func(t int) int { return n + t }
	sIdx := func(t int) int { return 2*n + t }
	slack := func(block, t int) int { return (3+block)*n + t }

	maxCharge := -p.MaxCharge
	gain := p.Efficiency * p.MarginalLossFactor

	c := make([]float64, blocks*n)
	A := mat.NewDense(4*n, blocks*n, nil)
	b := make([]float64, 4*n)

	for t, price := range prices {
		c[cIdx(t)] = price / gain
		c[dIdx(t)] = -price * gain

		// s_t - s_{t-1} - c_t + d_t = 0
		A.Set(t, sIdx(t), 1)
		if t > 0 {
			A.Set(t, sIdx(t-1), -1)
		} else {
			b[t] = initial
		}
		A.Set(t, cIdx(t), -1)
		A.Set(t, dIdx(t), 1)

		A.Set(n+t, cIdx(t), 1)
		A.Set(n+t, slack(0, t), 1)
		b[n+t] = maxCharge

		A.Set(2*n+t, dIdx(t), 1)
		A.Set(2*n+t, slack(1, t), 1)
		b[2*n+t] = p.MaxDischarge

		A.Set(3*n+t, sIdx(t), 1)
		A.Set(3*n+t, slack(2, t), 1)
		b[3*n+t] = p.Capacity
	}

	opt, x, err := lp.Simplex(c, A, b, tol, nil)
	if err != nil {
		return nil, 0, 0, err
	}

	raw = make([]float64, n)
	level := initial
	for t := range prices {
		r := x[dIdx(t)] - x[cIdx(t)]
		if math.Abs(r) < snapEpsilon {
			r = 0
		}
		raw[t] = r
		level -= r
	}
	return raw, math.Min(math.Max(level, 0), p.Capacity), -opt, nil
}
