package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-arbitrage/internal/model"
)

var start = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func regionSeries(region string, prices ...float64) model.PriceSeries {
	s := model.SeriesFromPrices(prices, start, model.DefaultPeriod)
	for i := range s {
		s[i].Region = region
	}
	return s
}

func TestComputePotential(t *testing.T) {
	s := regionSeries("VIC1", 50, 200, 50, 200)
	p, err := ComputePotential(s, model.DefaultPeriod, DefaultPotentialConfig())
	require.NoError(t, err)

	assert.Equal(t, "VIC1", p.Region)
	assert.Equal(t, 4, p.Count)
	assert.Equal(t, start.Add(2*time.Hour), p.End)
	assert.Equal(t, 50.0, p.MinPrice)
	assert.Equal(t, 200.0, p.MaxPrice)
	assert.InDelta(t, 125, p.MeanPrice, 1e-9)
	assert.InDelta(t, 75, p.StdDevPrice, 1e-9)
	assert.InDelta(t, 50, p.P05Price, 1e-9)
	assert.InDelta(t, 200, p.P95Price, 1e-9)

	want := 2 * (121.5*200*0.991 - 150*50/0.991)
	assert.InDelta(t, want, p.ExactRevenue, 1e-4)
	// four periods never fill a ten-period classifier window
	assert.Zero(t, p.HeuristicRevenue)
	assert.Zero(t, p.Capture)
}

func TestComputePotentialEmpty(t *testing.T) {
	p, err := ComputePotential(nil, model.DefaultPeriod, DefaultPotentialConfig())
	require.NoError(t, err)
	assert.Zero(t, p.Count)
}

func TestRankByExactRevenue(t *testing.T) {
	byRegion := map[string]model.PriceSeries{
		"NSW1": regionSeries("NSW1", 50, 150, 50, 150),
		"SA1":  regionSeries("SA1", 10, 900, 10, 900),
		"QLD1": regionSeries("QLD1", 40, 40, 40, 40),
	}
	ranked, err := RankByExactRevenue(context.Background(), byRegion, model.DefaultPeriod, DefaultPotentialConfig())
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "SA1", ranked[0].Region)
	assert.Equal(t, "NSW1", ranked[1].Region)
	assert.Equal(t, "QLD1", ranked[2].Region)
	assert.Zero(t, ranked[2].ExactRevenue)
}
