package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"speechcoach/internal/models"
)

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.WithError(err).Error("Failed to encode error response")
	}
}

// classifyError maps a domain error to an HTTP status and error code
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrResourceBusy):
		return http.StatusConflict, "resource_busy"
	case errors.Is(err, models.ErrNotRecording):
		return http.StatusConflict, "not_recording"
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, models.ErrPrecursorMissing):
		return http.StatusUnprocessableEntity, "precursor_missing"
	case errors.Is(err, models.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable, "device_unavailable"
	case errors.Is(err, models.ErrPersistence):
		return http.StatusInternalServerError, "persistence_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondWithError writes err as a JSON error. Server errors are logged and
// their detail is withheld from the client.
func respondWithError(w http.ResponseWriter, logger logrus.FieldLogger, logMsg string, err error) {
	status, code := classifyError(err)
	message := err.Error()

	switch {
	case status >= http.StatusInternalServerError && code == "persistence_error":
		logger.WithError(err).Error(logMsg)
		message = models.ErrPersistence.Error()
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		logger.WithError(err).Error(logMsg)
		message = ErrInternalServerError
	default:
		logger.WithError(err).Debug(logMsg)
	}

	respondError(w, status, code, message)
}
