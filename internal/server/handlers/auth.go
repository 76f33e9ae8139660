package handlers

import (
	"log/slog"
	"net/http"

	"github.com/criteo/guestgate/internal/apierrors"
	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/httpx"
)

// AuthHandler exposes the authentication subsystem state
type AuthHandler struct {
	service auth.Service
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// GetState handles GET /api/v1/auth/state
func (h *AuthHandler) GetState(w http.ResponseWriter, r *http.Request) {
	if err := httpx.WriteJSON(w, http.StatusOK, h.service.AuthState(r)); err != nil {
		h.logger.Error("Failed to encode auth state", "error", err)
	}
}

// PostReload handles POST /api/v1/auth/reload
// Requires authentication; the router applies the service middleware.
func (h *AuthHandler) PostReload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		code, msg, status := apierrors.MapAuthError(err)
		details := apierrors.SourceDetails(err)
		if details == nil {
			details = map[string]string{}
		}
		details["cause"] = err.Error()
		apierrors.WriteError(w, code, msg, status, details)
		return
	}

	h.logger.Info("Users reloaded on request", "remote_addr", r.RemoteAddr)
	if err := httpx.WriteJSON(w, http.StatusOK, h.service.AuthState(r)); err != nil {
		h.logger.Error("Failed to encode auth state", "error", err)
	}
}
