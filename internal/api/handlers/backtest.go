package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/metrics"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/strategy"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	batteryDir string
	results    *data.ResultCache[*backtest.Result]
	metrics    *metrics.Recorder
	log        zerolog.Logger
}

// NewBacktestHandler creates a new backtest handler. Finished runs are kept
// in results so their ledgers can be fetched later; rec may be nil.
func NewBacktestHandler(results *data.ResultCache[*backtest.Result], rec *metrics.Recorder, batteryDir string, log zerolog.Logger) *BacktestHandler {
	return &BacktestHandler{
		batteryDir: batteryDir,
		results:    results,
		metrics:    rec,
		log:        log,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err, nil)
		return
	}

	series, err := req.Data.Series()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_INPUT", err, nil)
		return
	}

	// Apply period limit if specified
	if req.Options.LimitPeriods > 0 && req.Options.LimitPeriods < len(series) {
		series = series[:req.Options.LimitPeriods]
	}

	cfg, err := h.buildConfig(req.Config)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err, nil)
		return
	}

	batt, err := cfg.Battery.NewBattery()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_BATTERY", err, nil)
		return
	}

	strat, err := strategy.Build(cfg.Strategy, cfg.StrategyInputs(series.Prices()))
	if err != nil {
		abortWithRunError(c, err, map[string]any{"strategy": cfg.Strategy.Name})
		return
	}

	engine := backtest.New(backtest.WithPeriod(req.Data.Period()), backtest.WithLogger(h.log))
	started := time.Now()
	result, err := engine.Run(series, batt, strat)
	h.record(strat.Name(), started, result, err)
	if err != nil {
		abortWithRunError(c, err, map[string]any{"strategy": strat.Name()})
		return
	}
	h.results.Set(result.ID, result)

	response := models.BacktestResponse{
		ID:      result.ID,
		Status:  "completed",
		Summary: buildSummary(result),
	}
	if req.Options.IncludeLedger {
		response.Ledger = convertLedger(result.Ledger)
	}
	if req.Options.IncludeSchedule {
		response.Schedule = result.Schedule
	}
	c.JSON(http.StatusOK, response)
}

// GetLedger handles GET /api/v1/backtest/:id/ledger. Add ?format=csv for
// the same columns the CLI writes.
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	result, ok := h.results.Get(id)
	if !ok {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND",
			fmt.Errorf("no backtest result with id %q", id), nil)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
		c.Status(http.StatusOK)
		if err := backtest.WriteLedger(c.Writer, result.Ledger); err != nil {
			h.log.Error().Err(err).Str("id", id).Msg("write ledger csv")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"ledger": convertLedger(result.Ledger),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err, nil)
		return
	}

	series, err := req.Data.Series()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_INPUT", err, nil)
		return
	}
	prices := series.Prices()

	jobs := make([]backtest.Job, 0, len(req.Variations))
	for _, variation := range req.Variations {
		cfg, err := h.buildConfig(mergeConfig(req.BaseConfig, variation.Config))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err,
				map[string]any{"variation": variation.Name})
			return
		}
		spec, in := cfg.Strategy, cfg.StrategyInputs(prices)
		jobs = append(jobs, backtest.Job{
			Label:         variation.Name,
			Battery:       cfg.Battery.ToModelParams(),
			InitialEnergy: cfg.Battery.InitialEnergyMWh,
			Build:         func() (strategy.Strategy, error) { return strategy.Build(spec, in) },
		})
	}

	engine := backtest.New(backtest.WithPeriod(req.Data.Period()), backtest.WithLogger(h.log))
	started := time.Now()
	results, err := engine.RunAll(c.Request.Context(), series, jobs, 0)
	if err != nil {
		abortWithRunError(c, err, nil)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(results))
	for _, jr := range results {
		h.record(jr.Result.Strategy, started, jr.Result, nil)
		h.results.Set(jr.Result.ID, jr.Result)
		comparison = append(comparison, models.ComparisonResult{
			Name:    jr.Label,
			ID:      jr.Result.ID,
			Summary: buildSummary(jr.Result),
		})
	}

	backtest.BestFirst(results)
	resp := models.CompareBacktestResponse{Comparison: comparison}
	if len(results) > 0 {
		resp.Best = results[0].Label
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BacktestHandler) record(name string, started time.Time, result *backtest.Result, err error) {
	revenue := 0.0
	if result != nil {
		revenue = result.TotalRevenue
	}
	h.metrics.RecordRun(name, time.Since(started), revenue, err)
}

// buildConfig resolves a request config the way a config file is resolved:
// battery preset first, explicit battery fields on top, then defaults.
func (h *BacktestHandler) buildConfig(req models.BacktestConfig) (*config.Config, error) {
	return resolveConfig(h.batteryDir, req)
}

func resolveConfig(batteryDir string, req models.BacktestConfig) (*config.Config, error) {
	cfg := &config.Config{
		BatteryFile: req.BatteryFile,
		Battery:     req.Battery,
		Strategy:    req.Strategy,
		VoteWindows: req.VoteWindows,
	}
	if req.Classifier != nil {
		cfg.Classifier = *req.Classifier
	}
	if req.Filter != nil {
		cfg.Filter = *req.Filter
	}
	if cfg.Strategy.Name == "" {
		cfg.Strategy.Name = "lots"
	}

	// battery_file is just the preset name (e.g., "1_reference")
	if cfg.BatteryFile != "" {
		loaded, err := config.LoadBatteryPreset(batteryDir, cfg.BatteryFile)
		if err != nil {
			return nil, fmt.Errorf("battery_file %q: %w", cfg.BatteryFile, err)
		}
		cfg.Battery = config.MergeBattery(loaded, cfg.Battery)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeConfig(base, override models.BacktestConfig) models.BacktestConfig {
	merged := base
	if override.BatteryFile != "" {
		merged.BatteryFile = override.BatteryFile
	}
	merged.Battery = config.MergeBattery(base.Battery, override.Battery)
	if override.Strategy.Name != "" {
		merged.Strategy = override.Strategy
	}
	if override.Classifier != nil {
		merged.Classifier = override.Classifier
	}
	if override.Filter != nil {
		merged.Filter = override.Filter
	}
	if len(override.VoteWindows) > 0 {
		merged.VoteWindows = override.VoteWindows
	}
	return merged
}

// dayWindow accumulates one calendar day of charging or discharging.
type dayWindow struct {
	window   models.TimeWindow
	weighted float64 // sum of price * market energy
	market   float64
	energy   float64 // battery side
}

func (w *dayWindow) add(row backtest.LedgerRow, market, energy float64) {
	if w.market == 0 && w.energy == 0 {
		w.window.Start = row.Start
	}
	w.window.End = row.End
	w.weighted += row.Price * market
	w.market += market
	w.energy += energy
}

func (w *dayWindow) average() float64 {
	if w.market == 0 {
		return 0
	}
	return w.weighted / w.market
}

// dayWindows keeps per-day accumulators in the order days first appear.
type dayWindows struct {
	order []string
	byDay map[string]*dayWindow
}

func (d *dayWindows) at(t time.Time) *dayWindow {
	key := t.Format(time.DateOnly)
	if d.byDay == nil {
		d.byDay = make(map[string]*dayWindow)
	}
	w, ok := d.byDay[key]
	if !ok {
		w = &dayWindow{}
		d.byDay[key] = w
		d.order = append(d.order, key)
	}
	return w
}

func buildSummary(result *backtest.Result) models.BacktestSummary {
	summary := models.BacktestSummary{
		Strategy:       result.Strategy,
		Region:         result.Region,
		TotalRevenue:   result.TotalRevenue,
		FinalEnergyMWh: result.FinalEnergy,
		TotalPeriods:   len(result.Ledger),
	}
	if len(result.Ledger) == 0 {
		return summary
	}

	totals := result.Summary()
	summary.EnergyChargedMWh = totals.ChargedMWh
	summary.EnergyDischargedMWh = totals.DischargedMWh
	summary.BacktestWindow = models.TimeWindow{
		Start: result.Ledger[0].Start,
		End:   result.Ledger[len(result.Ledger)-1].End,
	}

	// Group periods by day for per-day windows
	var charges, discharges dayWindows
	for _, row := range result.Ledger {
		switch row.Action {
		case model.ActionCharging:
			charges.at(row.Start).add(row, -row.MarketDispatchMWh, -row.RawMWh)
		case model.ActionDischarging:
			discharges.at(row.Start).add(row, row.MarketDispatchMWh, row.RawMWh)
		}
	}

	for _, day := range charges.order {
		w := charges.byDay[day]
		summary.ChargeWindows = append(summary.ChargeWindows, models.ChargeWindow{
			TimeWindow:        w.window,
			AverageCostPerMWh: w.average(),
			EnergyMWh:         w.energy,
		})
	}
	for _, day := range discharges.order {
		w := discharges.byDay[day]
		summary.DischargeWindows = append(summary.DischargeWindows, models.DischargeWindow{
			TimeWindow:         w.window,
			AveragePricePerMWh: w.average(),
			EnergyMWh:          w.energy,
		})
	}
	return summary
}

func convertLedger(ledger []backtest.LedgerRow) []models.LedgerRow {
	out := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		out[i] = models.LedgerRow{
			Index:             row.Index,
			Start:             row.Start,
			End:               row.End,
			Region:            row.Region,
			Price:             row.Price,
			Label:             row.Label,
			Action:            row.Action,
			RawMWh:            row.RawMWh,
			MarketDispatchMWh: row.MarketDispatchMWh,
			OpeningMWh:        row.OpeningMWh,
			ClosingMWh:        row.ClosingMWh,
			Revenue:           row.Revenue,
			CumRevenue:        row.CumRevenue,
		}
	}
	return out
}
