package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gestion-commandes/storefront/internal/platform/httpx"
)

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	clock     func() time.Time
	startedAt time.Time
	version   string
	readiness func(context.Context) error
}

// HealthOption customises the health handlers before construction.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs the health endpoints with sensible defaults.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.startedAt.IsZero() {
		h.startedAt = h.clock()
	}
	return h
}

// WithHealthClock overrides the time source, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthVersion reports a build version in the health payload.
func WithHealthVersion(version string) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
	}
}

// WithHealthReadiness sets the probe consulted by Readyz, typically a record
// store round-trip.
func WithHealthReadiness(probe func(context.Context) error) HealthOption {
	return func(h *HealthHandlers) {
		h.readiness = probe
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.version != "" {
		payload["version"] = h.version
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz reports whether the storefront can serve traffic. Without a probe the
// endpoint mirrors liveness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.readiness != nil {
		if err := h.readiness(ctx); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("not_ready", "storefront dependencies are not ready", http.StatusServiceUnavailable).WithDetails(map[string]any{
				"error": err.Error(),
			}))
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
