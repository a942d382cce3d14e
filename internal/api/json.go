package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/conflict"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps a service error onto the response contract: 422 for
// validation field errors, 409 for conflict reports and integrity
// blocks, 404 for missing rows, 400 for malformed requests, and the
// apologetic generic message for anything else. Raw backend text never
// reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, ferr := range fieldErrs {
			fields[name] = ferr.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:       "validation failed",
			FieldErrors: fields,
		})
		return
	}

	var report *conflict.Report
	if errors.As(err, &report) {
		writeJSON(w, http.StatusConflict, report)
		return
	}

	var integrity *apperr.IntegrityError
	if errors.As(err, &integrity) {
		writeJSON(w, http.StatusConflict, errorBody(integrity.Message()))
		return
	}

	switch {
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(conflict.DeleteBlockedMessage))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(apperr.GenericSaveMessage))
	}
}
