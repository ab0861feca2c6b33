package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/modules/provider"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// ProviderStatus is read on every probe so a credential rejection shows up.
type ProviderStatus interface {
	State() provider.State
	AuthDisabled() bool
}

type HealthHandler struct {
	checks   map[string]Check
	provider ProviderStatus
}

func NewHealthHandler(checks map[string]Check, status ProviderStatus) *HealthHandler {
	return &HealthHandler{checks: checks, provider: status}
}

// Health handles GET /health. An uninitialized provider degrades replies but
// does not fail the probe.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	body := gin.H{"status": status, "checks": results}
	if h.provider != nil {
		state := h.provider.State()
		body["provider"] = gin.H{
			"initialized":         state.Initialized,
			"credentials_present": state.CredentialsPresent,
			"auth_disabled":       h.provider.AuthDisabled(),
		}
	}
	writeJSON(c, code, body)
}
