package api

import (
	"errors"
	"net/http"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]any) {
	WriteJSON(w, status, ErrorResponse{Error: APIError{Code: code, Message: message, Details: details, RequestID: requestID}})
}

// Convenience helpers
func BadRequest(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, code, message, requestID, details)
}

func Unauthorized(w http.ResponseWriter, code, message, requestID string) {
	WriteError(w, http.StatusUnauthorized, code, message, requestID, nil)
}

func NotFound(w http.ResponseWriter, code, message, requestID string) {
	WriteError(w, http.StatusNotFound, code, message, requestID, nil)
}

func Conflict(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusConflict, code, message, requestID, details)
}

func Internal(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error", requestID, nil)
}

// WriteDomainError translates the apperr taxonomy into the HTTP envelope.
// Anything outside the taxonomy is reported as INTERNAL without detail.
func WriteDomainError(w http.ResponseWriter, err error, requestID string) {
	var vErr *apperr.ValidationError
	var upErr *apperr.UploadError
	var pdErr *apperr.PartialDeletionError

	switch {
	case errors.As(err, &vErr):
		BadRequest(w, "VALIDATION", vErr.Error(), requestID,
			map[string]any{"missing": vErr.Missing})
	case errors.Is(err, apperr.ErrUnauthorized):
		Unauthorized(w, "UNAUTHORIZED", err.Error(), requestID)
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(w, "NOT_FOUND", err.Error(), requestID)
	case errors.Is(err, apperr.ErrInvalidOperation):
		Conflict(w, "INVALID_OPERATION", err.Error(), requestID, nil)
	case errors.As(err, &upErr):
		WriteError(w, http.StatusBadGateway, "UPLOAD_FAILED", upErr.Error(), requestID, nil)
	case errors.As(err, &pdErr):
		WriteError(w, http.StatusInternalServerError, "PARTIAL_DELETION", pdErr.Error(), requestID,
			map[string]any{"deleted": pdErr.Deleted, "pending": pdErr.Pending})
	default:
		Internal(w, requestID)
	}
}
