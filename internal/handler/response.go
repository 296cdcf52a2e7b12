package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrConfig):
		body.Code = "CONFIG_ERROR"
		body.Message = "Service is not configured"
		slog.Error("configuration error", "error", err)
	case errors.Is(err, model.ErrAuthentication):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "invalid token"
	case errors.Is(err, model.ErrAuthorization):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "insufficient permissions"
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusBadRequest
		body.Code = "INVALID_CREDENTIALS"
		body.Message = model.ErrInvalidCredentials.Error()
	case errors.Is(err, model.ErrDuplicateEmail):
		status = http.StatusBadRequest
		body.Code = "DUPLICATE_EMAIL"
		body.Message = model.ErrDuplicateEmail.Error()
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusBadRequest
		body.Code = "NOT_FOUND"
		body.Message = notFoundMessage(err)
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	case errors.Is(err, model.ErrStorage):
		body.Code = "STORAGE_ERROR"
		body.Message = model.ErrStorage.Error()
		slog.Error("storage error", "error", err)
	default:
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// writeLookupError is writeError for admin lookups by id, where a missing
// row is a 404 rather than a bad request.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, apierror.New("NOT_FOUND", notFoundMessage(err), "", http.StatusNotFound))
		return
	}
	writeError(w, err)
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, model.ErrTenantNotFound):
		return "Tenant not found"
	case errors.Is(err, model.ErrSessionNotFound):
		return "Session not found"
	default:
		return "Not found"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}

func parseIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("id must be a positive integer", "id")
	}
	return id, nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
