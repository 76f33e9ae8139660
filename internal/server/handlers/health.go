package handlers

import (
	"log/slog"
	"net/http"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/httpx"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	state  auth.StateProvider
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(state auth.StateProvider, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		state:  state,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// CheckResult represents a single health check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// GetHealth handles GET /api/v1/health
// Reports 503 until the first users load has completed.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]CheckResult),
	}

	state := h.state.AuthState(r)
	status := http.StatusOK

	switch {
	case !state.Initialized:
		response.Checks["auth"] = CheckResult{
			Status:  "starting",
			Message: "users not loaded yet",
		}
		response.Status = "starting"
		status = http.StatusServiceUnavailable
	case state.Loading:
		response.Checks["auth"] = CheckResult{
			Status:  "healthy",
			Message: "reload in progress",
		}
	default:
		response.Checks["auth"] = CheckResult{
			Status: "healthy",
		}
	}

	if err := httpx.WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
