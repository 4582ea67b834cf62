package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"battery-arbitrage/internal/analysis"
	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	batteryDir string
	log        zerolog.Logger
}

// NewRankHandler creates a new rank handler
func NewRankHandler(batteryDir string, log zerolog.Logger) *RankHandler {
	return &RankHandler{batteryDir: batteryDir, log: log}
}

// RankRegions handles POST /api/v1/rank
func (h *RankHandler) RankRegions(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err, nil)
		return
	}

	byRegion := make(map[string]model.PriceSeries, len(req.Regions))
	for name, in := range req.Regions {
		series, err := in.Series()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_INPUT", err,
				map[string]any{"region": name})
			return
		}
		for i := range series {
			series[i].Region = name
		}
		byRegion[name] = series
	}

	batt, err := h.battery(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_BATTERY", err, nil)
		return
	}
	cfg := analysis.DefaultPotentialConfig()
	cfg.Battery = dispatch.ParamsFromBattery(batt.ToModelParams())

	period := model.DefaultPeriod
	if req.PeriodMinutes > 0 {
		period = time.Duration(req.PeriodMinutes) * time.Minute
	}

	ranked, err := analysis.RankByExactRevenue(c.Request.Context(), byRegion, period, cfg)
	if err != nil {
		abortWithRunError(c, err, nil)
		return
	}

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:               i + 1,
			ArbitragePotential: r.ArbitragePotential,
		}
	}
	h.log.Debug().Int("regions", len(byRegion)).Int("returned", len(rankings)).Msg("ranked regions")
	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings})
}

func (h *RankHandler) battery(req models.RankRequest) (config.BatteryConfig, error) {
	b := req.Battery
	if req.BatteryFile != "" {
		loaded, err := config.LoadBatteryPreset(h.batteryDir, req.BatteryFile)
		if err != nil {
			return b, fmt.Errorf("battery_file %q: %w", req.BatteryFile, err)
		}
		b = config.MergeBattery(loaded, b)
	}
	b, err := b.WithDefaults()
	if err != nil {
		return b, err
	}
	if _, err := b.NewBattery(); err != nil {
		return b, err
	}
	return b, nil
}
