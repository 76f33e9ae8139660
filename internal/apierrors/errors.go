package apierrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/storage"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	ErrCodeValidationError    ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeLoginDisabled      ErrorCode = "LOGIN_DISABLED"
	ErrCodeUsersNotFound      ErrorCode = "USERS_NOT_FOUND"
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeReloadFailed       ErrorCode = "RELOAD_FAILED"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, code ErrorCode, message string, statusCode int, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// MapAuthError maps auth and users source errors to HTTP responses
func MapAuthError(err error) (ErrorCode, string, int) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrCodeUnauthorized, "Invalid username or password", http.StatusUnauthorized
	case errors.Is(err, auth.ErrLoginDisabled):
		return ErrCodeLoginDisabled, "Login is disabled on this server", http.StatusNotImplemented
	}

	var srcErr *storage.SourceError
	if !errors.As(err, &srcErr) {
		return ErrCodeReloadFailed, "Internal server error", http.StatusInternalServerError
	}

	switch srcErr.Kind {
	case storage.KindNotFound:
		return ErrCodeUsersNotFound, "Users document not found", http.StatusBadGateway
	case storage.KindAuth:
		return ErrCodeStorageUnavailable, "Users storage rejected the configured credentials", http.StatusServiceUnavailable
	case storage.KindNetwork:
		return ErrCodeStorageUnavailable, "Users storage is unreachable", http.StatusServiceUnavailable
	default:
		return ErrCodeStorageUnavailable, "Users storage unavailable", http.StatusServiceUnavailable
	}
}

// SourceDetails returns the error details of a users source failure, or nil
func SourceDetails(err error) map[string]string {
	var srcErr *storage.SourceError
	if !errors.As(err, &srcErr) {
		return nil
	}
	details := map[string]string{
		"backend": srcErr.Backend,
		"kind":    srcErr.Kind,
	}
	if srcErr.Hint != "" {
		details["hint"] = srcErr.Hint
	}
	return details
}
