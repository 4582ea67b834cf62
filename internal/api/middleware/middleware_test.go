package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-arbitrage/internal/api/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(ErrorHandler(zerolog.New(&buf)))
	r.GET("/string", func(*gin.Context) { panic("boom") })
	r.GET("/error", func(*gin.Context) { panic(errors.New("bad state")) })
	r.GET("/other", func(*gin.Context) { panic(42) })

	for path, msg := range map[string]string{
		"/string": "boom",
		"/error":  "bad state",
		"/other":  "An unexpected error occurred",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusInternalServerError, w.Code, path)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
		assert.Equal(t, msg, resp.Error.Message)
	}
	assert.Contains(t, buf.String(), "recovered from panic")
}

func TestLoggerWritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Logger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusTeapot, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping?x=1", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ping?x=1", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.Contains(t, line, "latency")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSWithOrigins("https://example.com"))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
