package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/config"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	batteryDir string
	log        zerolog.Logger
}

// NewBatteryHandler creates a new battery handler over the presets in dir.
func NewBatteryHandler(dir string, log zerolog.Logger) *BatteryHandler {
	log.Info().Str("dir", dir).Msg("using battery directory")
	return &BatteryHandler{
		batteryDir: dir,
		log:        log,
	}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	presets, errs := config.ListBatteryPresets(h.batteryDir)
	for _, err := range errs {
		// A missing directory or a bad file should not hide the rest.
		h.log.Warn().Err(err).Str("dir", h.batteryDir).Msg("skipping battery preset")
	}

	for _, p := range presets {
		b, err := p.Battery.WithDefaults()
		if err != nil {
			h.log.Warn().Err(err).Str("file", p.File).Msg("skipping battery preset")
			continue
		}
		batteries = append(batteries, models.BatteryInfo{
			ID:   p.ID,
			Name: b.Name,
			File: p.File,
			Specs: models.BatterySpecs{
				CapacityMWh:        b.CapacityMWh,
				MaxChargeMWh:       b.MaxChargeMWh,
				MaxDischargeMWh:    b.MaxDischargeMWh,
				Efficiency:         b.Efficiency,
				MarginalLossFactor: b.MarginalLossFactor,
			},
		})
	}

	h.log.Debug().Int("count", len(batteries)).Msg("listing batteries")
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}
