package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Prober runs the named dependency checks, nil meaning healthy.
type Prober interface {
	CheckAll(ctx context.Context) map[string]error
}

// HealthHandler reports dependency health.
type HealthHandler struct {
	prober  Prober
	service string
	version string
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(prober Prober, service, version string) *HealthHandler {
	return &HealthHandler{prober: prober, service: service, version: version}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Health handles GET /health. Any failing check answers 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Service: h.service,
		Version: h.version,
		Checks:  map[string]string{},
	}
	code := http.StatusOK

	for name, err := range h.prober.CheckAll(ctx) {
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	c.JSON(code, resp)
}
