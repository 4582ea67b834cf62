package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-arbitrage/internal/model"
)

func TestSpike(t *testing.T) {
	prices := []float64{100, 100, 100, 100, 150, 90, 100, 100}
	got, err := Spike{Window: 3}.Classify(prices)
	require.NoError(t, err)
	assert.Equal(t, labels(0, 0, 0, 0, 1, -1, 0, 0), got)

	// a rise under 13.5% is not a spike
	prices[4] = 110
	got, err = Spike{Window: 3}.Classify(prices)
	require.NoError(t, err)
	assert.Equal(t, labels(0, 0, 0, 0, 0, 0, 0, 0), got)

	_, err = Spike{}.Classify(prices)
	assert.Error(t, err)
}

func TestDip(t *testing.T) {
	got, err := Dip{Window: 5}.Classify([]float64{100, 100, 10, 100, 100, 100})
	require.NoError(t, err)
	assert.Equal(t, labels(0, 0, -1, 0, 0, 0), got)

	got, err = Dip{Window: 5}.Classify(flat(8, 50))
	require.NoError(t, err)
	assert.Equal(t, make([]model.Label, 8), got)

	_, err = Dip{Window: 1}.Classify(nil)
	assert.Error(t, err)
}

func TestSpikeVote(t *testing.T) {
	v := DefaultSpikeVote()
	require.Len(t, v.Timeframes, 4)
	assert.True(t, v.Timeframes[0].(Classifier).Inclusive)
	assert.Equal(t, 8, v.Timeframes[1].(Classifier).Window)

	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = float64(60 + (i%10)*10)
	}
	got, err := v.Classify(prices)
	require.NoError(t, err)
	assert.Len(t, got, len(prices))

	// spike labels carry the vote where the band classifier holds
	w := WithSpikes(fixed(make([]model.Label, 8)), 3)
	got, err = w.Classify([]float64{100, 100, 100, 100, 150, 90, 100, 100})
	require.NoError(t, err)
	assert.Equal(t, labels(0, 0, 0, 0, 1, -1, 0, 0), got)
}
