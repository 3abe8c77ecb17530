package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/greenstash/greenstash/internal/backup"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/repository"
	"github.com/greenstash/greenstash/internal/service"
	"github.com/greenstash/greenstash/internal/validation"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, errorResponse{Error: message, Detail: detail})
}

// writeServiceError maps a service error to a status code. Unexpected
// errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var corrupt *backup.CorruptImageError

	switch {
	case errors.Is(err, backup.ErrMalformedBackup):
		writeError(w, http.StatusBadRequest, "invalid backup file", err.Error())
	case errors.Is(err, backup.ErrUnsupportedSchema):
		writeError(w, http.StatusUnprocessableEntity, "backup requires a newer app version", err.Error())
	case errors.As(err, &corrupt):
		writeError(w, http.StatusUnprocessableEntity, "backup contains a corrupt image", corrupt.Error())
	case errors.Is(err, validation.ErrTitleEmpty),
		errors.Is(err, validation.ErrTitleTooLong),
		errors.Is(err, validation.ErrAmountInvalid),
		errors.Is(err, validation.ErrDeadlineInvalid),
		errors.Is(err, model.ErrInvalidBitmap):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, service.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
	default:
		slog.Error(msg, "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, msg, "")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}
