package models

import (
	"time"

	"battery-arbitrage/internal/analysis"
	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID       string             `json:"id,omitempty"`
	Status   string             `json:"status"`
	Summary  BacktestSummary    `json:"summary"`
	Ledger   []LedgerRow        `json:"ledger,omitempty"`
	Schedule *dispatch.Schedule `json:"schedule,omitempty"`
}

// BacktestSummary contains aggregated backtest results
type BacktestSummary struct {
	Strategy            string            `json:"strategy"`
	Region              string            `json:"region,omitempty"`
	TotalRevenue        float64           `json:"total_revenue"`
	FinalEnergyMWh      float64           `json:"final_energy_mwh"`
	TotalPeriods        int               `json:"total_periods"`
	BacktestWindow      TimeWindow        `json:"backtest_window"`
	EnergyChargedMWh    float64           `json:"energy_charged_mwh"`
	EnergyDischargedMWh float64           `json:"energy_discharged_mwh"`
	ChargeWindows       []ChargeWindow    `json:"charge_windows,omitempty"`    // Per-day charge windows
	DischargeWindows    []DischargeWindow `json:"discharge_windows,omitempty"` // Per-day discharge windows
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ChargeWindow represents a charge window with average cost
type ChargeWindow struct {
	TimeWindow
	AverageCostPerMWh float64 `json:"average_cost_per_mwh"` // Weighted by market-side energy drawn
	EnergyMWh         float64 `json:"energy_mwh"`           // Battery-side energy stored in this window
}

// DischargeWindow represents a discharge window with average price
type DischargeWindow struct {
	TimeWindow
	AveragePricePerMWh float64 `json:"average_price_per_mwh"` // Weighted by market-side energy delivered
	EnergyMWh          float64 `json:"energy_mwh"`            // Battery-side energy withdrawn in this window
}

// LedgerRow represents one period in the backtest ledger
type LedgerRow struct {
	Index             int          `json:"index"`
	Start             time.Time    `json:"start"`
	End               time.Time    `json:"end"`
	Region            string       `json:"region,omitempty"`
	Price             float64      `json:"price"`
	Label             model.Label  `json:"label"`
	Action            model.Action `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"
	RawMWh            float64      `json:"raw_mwh"`
	MarketDispatchMWh float64      `json:"market_dispatch_mwh"`
	OpeningMWh        float64      `json:"opening_mwh"`
	ClosingMWh        float64      `json:"closing_mwh"`
	Revenue           float64      `json:"revenue"`
	CumRevenue        float64      `json:"cum_revenue"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
	Best       string             `json:"best,omitempty"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string          `json:"name"`
	ID      string          `json:"id"`
	Summary BacktestSummary `json:"summary"`
}

// RankResponse represents the response from ranking regions
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked region
type Ranking struct {
	Rank int `json:"rank"`
	analysis.ArbitragePotential
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CapacityMWh        float64 `json:"capacity_mwh"`
	MaxChargeMWh       float64 `json:"max_charge_mwh"`
	MaxDischargeMWh    float64 `json:"max_discharge_mwh"`
	Efficiency         float64 `json:"efficiency"`
	MarginalLossFactor float64 `json:"marginal_loss_factor"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // "float", "int", "bool"
	Default any    `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
