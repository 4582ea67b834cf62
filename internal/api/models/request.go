package models

import (
	"errors"
	"fmt"
	"time"

	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
	"battery-arbitrage/internal/strategy"
)

// PriceInput carries price data inline. Either Periods, or Prices with an
// optional Start and PeriodMinutes.
type PriceInput struct {
	Periods       model.PriceSeries `json:"periods,omitempty"`
	Prices        []float64         `json:"prices,omitempty"`
	Start         time.Time         `json:"start,omitempty"`
	PeriodMinutes int               `json:"period_minutes,omitempty"`
	Region        string            `json:"region,omitempty"`
}

// Series converts the input to a price series.
func (in PriceInput) Series() (model.PriceSeries, error) {
	switch {
	case len(in.Periods) > 0 && len(in.Prices) > 0:
		return nil, errors.New("set either periods or prices, not both")
	case len(in.Periods) > 0:
		s := append(model.PriceSeries(nil), in.Periods...)
		if in.Region != "" {
			for i := range s {
				if s[i].Region == "" {
					s[i].Region = in.Region
				}
			}
		}
		return s, nil
	case len(in.Prices) > 0:
		if in.PeriodMinutes < 0 {
			return nil, fmt.Errorf("period_minutes must be positive, got %d", in.PeriodMinutes)
		}
		s := model.SeriesFromPrices(in.Prices, in.Start, in.Period())
		for i := range s {
			s[i].Region = in.Region
		}
		return s, nil
	default:
		return nil, errors.New("no price data")
	}
}

func (in PriceInput) Period() time.Duration {
	if in.PeriodMinutes <= 0 {
		return model.DefaultPeriod
	}
	return time.Duration(in.PeriodMinutes) * time.Minute
}

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	Data    PriceInput      `json:"data" binding:"required"`
	Config  BacktestConfig  `json:"config" binding:"required"`
	Options BacktestOptions `json:"options,omitempty"`
}

// BacktestConfig contains battery, signal and strategy configuration.
// Unset sections fall back to the defaults of the config file format.
type BacktestConfig struct {
	// BatteryFile names a preset in the battery directory (e.g. "1_reference").
	BatteryFile string               `json:"battery_file,omitempty"`
	Battery     config.BatteryConfig `json:"battery,omitempty"`
	Strategy    strategy.Spec        `json:"strategy"`
	Classifier  *signal.Classifier   `json:"classifier,omitempty"`
	Filter      *signal.FilterParams `json:"filter,omitempty"`
	VoteWindows []int                `json:"vote_windows,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	LimitPeriods    int  `json:"limit_periods,omitempty"`    // 0 = all
	IncludeLedger   bool `json:"include_ledger,omitempty"`   // default: false
	IncludeSchedule bool `json:"include_schedule,omitempty"` // default: false
}

// CompareBacktestRequest represents a request to compare multiple backtests
type CompareBacktestRequest struct {
	Data       PriceInput          `json:"data" binding:"required"`
	BaseConfig BacktestConfig      `json:"base_config"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1,dive"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config BacktestConfig `json:"config"`
}

// RankRequest represents a request to rank regions
type RankRequest struct {
	// Regions maps a region name to its prices.
	Regions       map[string]PriceInput `json:"regions" binding:"required,min=1"`
	BatteryFile   string                `json:"battery_file,omitempty"`
	Battery       config.BatteryConfig  `json:"battery,omitempty"`
	PeriodMinutes int                   `json:"period_minutes,omitempty"`
	Limit         int                   `json:"limit,omitempty"` // default: 10
}
