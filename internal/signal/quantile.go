package signal

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Method selects how a classifier derives its band from a price window.
type Method string

const (
	// MethodExcel is the exclusive percentile (PERCENTILE.EXC).
	MethodExcel Method = "excel"
	// MethodLinear interpolates on q*(n-1).
	MethodLinear Method = "linear"
	// MethodEmpirical takes the empirical CDF inverse.
	MethodEmpirical Method = "empirical"
	// MethodStdDev uses mean -/+ k standard deviations.
	MethodStdDev Method = "stddev"
)

var (
	ErrUnknownMethod = errors.New("unknown band method")
	ErrQuantileRange = errors.New("quantile rank out of range for window")
	errEmptyWindow   = errors.New("empty window")
)

// Methods lists every supported band method.
func Methods() []Method {
	return []Method{MethodExcel, MethodLinear, MethodEmpirical, MethodStdDev}
}

// Quantile evaluates a percentile method on an ascending-sorted slice.
// MethodStdDev is not a quantile and is rejected here.
func Quantile(m Method, sorted []float64, q float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, errEmptyWindow
	}
	switch m {
	case MethodExcel:
		return quantileExclusive(sorted, q)
	case MethodLinear:
		return quantileLinear(sorted, q), nil
	case MethodEmpirical:
		return stat.Quantile(q, stat.Empirical, sorted, nil), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
}

// QuantileOf sorts a copy of xs and evaluates q with method m.
func QuantileOf(m Method, xs []float64, q float64) (float64, error) {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return Quantile(m, s, q)
}

func quantileExclusive(sorted []float64, q float64) (float64, error) {
	n := len(sorted)
	rank := q*float64(n+1) - 1
	lo := int(math.Floor(rank))
	if rank <= 0 || lo+1 > n-1 {
		return 0, fmt.Errorf("%w: q=%.3f n=%d", ErrQuantileRange, q, n)
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

func quantileLinear(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
