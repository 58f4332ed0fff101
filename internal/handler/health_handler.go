package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/service"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

// Pinger is satisfied by *sqlx.DB and the Redis status check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler exposes liveness, readiness and Prometheus endpoints.
type HealthHandler struct {
	metrics *service.MetricsService
	deps    map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler constructs a health handler. deps are checked by Ready.
func NewHealthHandler(metrics *service.MetricsService, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{metrics: metrics, deps: deps, timeout: 2 * time.Second}
}

// Health godoc
// @Summary Liveness
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness
// @Description Pings Postgres and, when enabled, Redis
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	ready := true
	for name, dep := range h.deps {
		if err := dep.PingContext(ctx); err != nil {
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}
	if !ready {
		c.JSON(http.StatusServiceUnavailable, response.Envelope{
			OK:      false,
			Error:   "dependencies unavailable",
			Code:    "NOT_READY",
			Details: map[string]interface{}{"checks": checks},
		})
		return
	}
	response.OK(c, gin.H{"status": "ready", "checks": checks})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
