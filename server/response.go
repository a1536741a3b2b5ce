package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-tenant-console/auth"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/rs/zerolog/log"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string, data any) {
	body := map[string]any{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, statusCode, body)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	log.Warn().Err(err).Str("operation", operation).Str("request_id", requestIDFromContext(r.Context())).Msg("Invalid request")
	writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}

func writeMappedError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, code := mapError(err)
	event := log.Warn()
	if status >= 500 {
		event = log.Error()
	}
	event.Err(err).
		Str("operation", operation).
		Int("status", status).
		Str("code", code).
		Str("request_id", requestIDFromContext(r.Context())).
		Msg("Request failed")
	writeError(w, status, code, err.Error())
}

// mapError picks the HTTP status and code for an orchestrator failure.
func mapError(err error) (int, string) {
	var cf *apperrors.CompensationFailure
	switch {
	case errors.As(err, &cf):
		return http.StatusInternalServerError, "COMPENSATION_FAILED"
	case apperrors.IsConfigurationError(err):
		return http.StatusServiceUnavailable, "CONFIGURATION_ERROR"
	case apperrors.IsTransportError(err):
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE"
	case errors.Is(err, auth.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, apperrors.ErrNoSession), errors.Is(err, apperrors.ErrMissingSession), errors.Is(err, apperrors.ErrSessionExpired):
		return http.StatusUnauthorized, "NO_SESSION"
	case errors.Is(err, apperrors.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_TAKEN"
	case errors.Is(err, apperrors.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "WEAK_PASSWORD"
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrUnauthorizedTenant):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrTenantNotFound), errors.Is(err, apperrors.ErrProfileNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case apperrors.IsAuthError(err):
		return http.StatusBadRequest, "AUTH_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
