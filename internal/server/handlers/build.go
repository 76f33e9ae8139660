package handlers

import (
	"net/http"
	"runtime"

	"github.com/criteo/guestgate/internal/httpx"
)

// VersionResponse describes the running build
type VersionResponse struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns a handler for GET /api/v1/version
func GetVersion(version string) http.HandlerFunc {
	resp := VersionResponse{
		Version:   version,
		GoVersion: runtime.Version(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
