package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
	"battery-arbitrage/internal/strategy"
)

// classify maps a run error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrLengthMismatch):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, strategy.ErrInitialEnergy),
		errors.Is(err, signal.ErrUnknownMethod),
		errors.Is(err, signal.ErrQuantileRange):
		return http.StatusBadRequest, "INVALID_CONFIG"
	default:
		return http.StatusInternalServerError, "BACKTEST_ERROR"
	}
}

func abortWithError(c *gin.Context, status int, code string, err error, details map[string]any) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
			Details: details,
		},
	})
}

func abortWithRunError(c *gin.Context, err error, details map[string]any) {
	status, code := classify(err)
	abortWithError(c, status, code, err, details)
}
