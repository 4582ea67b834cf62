package signal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-arbitrage/internal/model"
)

func labels(xs ...int) []model.Label {
	out, err := model.LabelsFromInts(xs)
	if err != nil {
		panic(err)
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestFilterBoundaryTrim(t *testing.T) {
	got, err := Filter(flat(6, 50), labels(1, -1, 1, 0, -1, 1), DefaultFilterParams())
	require.NoError(t, err)
	assert.Equal(t, labels(0, -1, 1, 0, -1, 1), got)
}

func TestFilterDegenerate(t *testing.T) {
	tests := []struct {
		name string
		in   []model.Label
	}{
		{"no charge", labels(1, 0, 1)},
		{"no discharge", labels(-1, -1, 0)},
		{"discharge only before charge", labels(1, 1, -1, -1)},
		{"all hold", labels(0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(flat(len(tt.in), 10), tt.in, DefaultFilterParams())
			require.NoError(t, err)
			assert.Equal(t, make([]model.Label, len(tt.in)), got)
		})
	}
}

func TestFilterChargeCapDropsMostExpensive(t *testing.T) {
	prices := []float64{10, 9, 8, 7, 6, 5, 100}
	got, err := Filter(prices, labels(-1, -1, -1, -1, -1, -1, 1), DefaultFilterParams())
	require.NoError(t, err)
	assert.Equal(t, labels(0, -1, -1, -1, -1, -1, 1), got)
}

func TestFilterDischargeCapDropsCheapest(t *testing.T) {
	prices := []float64{1, 50, 60, 70, 80, 90}
	got, err := Filter(prices, labels(-1, 1, 1, 1, 1, 1), DefaultFilterParams())
	require.NoError(t, err)
	assert.Equal(t, labels(-1, 0, 1, 1, 1, 1), got)
}

func TestFilterTiesDropFirst(t *testing.T) {
	prices := []float64{10, 10, 10, 10, 10, 10, 100}
	got, err := Filter(prices, labels(-1, -1, -1, -1, -1, -1, 1), DefaultFilterParams())
	require.NoError(t, err)
	assert.Equal(t, labels(0, -1, -1, -1, -1, -1, 1), got)
}

func TestFilterCapsResetOnDirectionChange(t *testing.T) {
	prices := []float64{5, 6, 100, 4, 3, 2, 1, 0, 200}
	p := FilterParams{ChargeCap: 3, DischargeCap: 1}
	got, err := Filter(prices, labels(-1, -1, 1, -1, -1, -1, -1, -1, 1), p)
	require.NoError(t, err)
	// second run of five charges keeps the three cheapest
	assert.Equal(t, labels(-1, -1, 1, 0, 0, -1, -1, -1, 1), got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := labels(1, -1, 1)
	_, err := Filter(flat(3, 1), in, DefaultFilterParams())
	require.NoError(t, err)
	assert.Equal(t, labels(1, -1, 1), in)
}

func TestFilterIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 20 + rng.Intn(200)
		prices := make([]float64, n)
		raw := make([]int, n)
		for i := range prices {
			prices[i] = rng.Float64()*300 - 50
			raw[i] = rng.Intn(3) - 1
		}
		once, err := Filter(prices, labels(raw...), DefaultFilterParams())
		require.NoError(t, err)
		twice, err := Filter(prices, once, DefaultFilterParams())
		require.NoError(t, err)
		assert.Equal(t, once, twice, "trial %d", trial)
	}
}

func TestFilterLengthMismatch(t *testing.T) {
	_, err := Filter([]float64{1, 2}, labels(1), DefaultFilterParams())
	assert.ErrorIs(t, err, model.ErrLengthMismatch)
}

func TestFilterParamsValidate(t *testing.T) {
	_, err := Filter([]float64{1}, labels(0), FilterParams{ChargeCap: 0, DischargeCap: 4})
	assert.Error(t, err)
}
