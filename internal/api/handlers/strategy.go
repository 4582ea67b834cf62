package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/strategy"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	available := strategy.Available()
	strategies := make([]models.StrategyInfo, 0, len(available))
	for _, info := range available {
		strategies = append(strategies, models.StrategyInfo{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  parameters(info.Params),
		})
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}

func parameters(defaults map[string]any) []models.ParameterInfo {
	out := make([]models.ParameterInfo, 0, len(defaults))
	for name, def := range defaults {
		out = append(out, models.ParameterInfo{
			Name:    name,
			Type:    paramType(def),
			Default: def,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func paramType(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case int:
		return "int"
	case float64:
		return "float"
	default:
		return "string"
	}
}
