package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/n-kyan/microsoft-auth/internal/dto"
	"github.com/n-kyan/microsoft-auth/internal/service"
)

// HealthHandler exposes observability endpoints.
type HealthHandler struct {
	metrics *service.MetricsService
	tokens  tokenProvider
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(metrics *service.MetricsService, tokens tokenProvider) *HealthHandler {
	return &HealthHandler{metrics: metrics, tokens: tokens}
}

// Health godoc
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "healthy"})
}

// Ready godoc
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.ReadyResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	_, ok := h.tokens.GetValidToken()
	c.JSON(http.StatusOK, dto.ReadyResponse{Status: "ready", Authenticated: ok})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
