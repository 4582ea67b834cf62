package model

import "time"

// DefaultPeriod is the length of one market interval.
const DefaultPeriod = 30 * time.Minute

// PricePeriod is one half-hour spot price observation.
//
// Example JSON:
//
//	{"start": "2021-01-01T00:00:00+10:00", "price": 43.21, "region": "VIC1"}
type PricePeriod struct {
	Start  time.Time `json:"start"`
	Price  float64   `json:"price"` // $/MWh, may be negative
	Region string    `json:"region,omitempty"`
}

// PriceSeries is an ordered, contiguous run of periods.
type PriceSeries []PricePeriod

// Prices returns the bare price values in period order.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Region returns the region of the first period, or "" for an empty series.
func (s PriceSeries) Region() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].Region
}

// End returns the end of the last period.
func (s PriceSeries) End(period time.Duration) time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Start.Add(period)
}

// SeriesFromPrices builds a series from bare prices, spacing periods evenly from start.
func SeriesFromPrices(prices []float64, start time.Time, period time.Duration) PriceSeries {
	if period <= 0 {
		period = DefaultPeriod
	}
	out := make(PriceSeries, len(prices))
	for i, p := range prices {
		out[i] = PricePeriod{Start: start.Add(time.Duration(i) * period), Price: p}
	}
	return out
}

// GroupByRegion splits a mixed series into region-keyed series, keeping order.
func GroupByRegion(s PriceSeries) map[string]PriceSeries {
	out := map[string]PriceSeries{}
	for _, p := range s {
		out[p.Region] = append(out[p.Region], p)
	}
	return out
}
